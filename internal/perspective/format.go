package perspective

import (
	"fmt"
	"strings"
	"time"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// Note previews are cut at a fixed rune budget; the compact budget applies
// to the hierarchy and grouped views, the full budget to the flat view.
const (
	notePreviewCompact = 60
	notePreviewFull    = 100
)

// FormatTaskName renders the display name with status markup. Completed
// wins over flagged.
func FormatTaskName(t TaskRecord) string {
	name := "**" + strings.TrimSpace(t.Name) + "**"
	if t.Completed {
		return "~~" + name + "~~ ✅"
	}
	if t.Flagged {
		return "🚩 " + name
	}
	return name
}

func statusGlyph(t TaskRecord) string {
	if t.Completed {
		return "✅"
	}
	if t.Flagged {
		return "🚩"
	}
	return "•"
}

// TaskLink builds the deep link back into the source application. An empty
// id yields an empty string, never an error.
func TaskLink(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "omnifocus:///task/" + id
}

// detailLines returns the optional per-task lines in display order:
// project, tags, due date, estimate, note preview.
func detailLines(t TaskRecord, noteBudget int) []string {
	var lines []string
	if p := strings.TrimSpace(t.Project); p != "" {
		lines = append(lines, "📁 "+p)
	}
	if len(t.Tags) > 0 {
		lines = append(lines, "🏷️ "+strings.Join(t.Tags, ", "))
	}
	if due := formatDueLong(t.DueDate); due != "" {
		lines = append(lines, "📅 "+due)
	}
	if est := formatEstimate(t.EstimatedMinutes); est != "" {
		lines = append(lines, "⏱️ "+est)
	}
	if note := notePreview(t.Note, noteBudget); note != "" {
		lines = append(lines, "📝 "+note)
	}
	return lines
}

func parseDueDate(raw string) (time.Time, bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}

func formatDueLong(raw string) string {
	t, hasClock, ok := parseDueDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	if hasClock {
		return t.Format("Jan 2, 2006 3:04 PM")
	}
	return t.Format("Jan 2, 2006")
}

// formatDueShort renders the inline month/day form used by the grouped
// view; the year only appears when it differs from the current one.
func formatDueShort(raw string) string {
	t, _, ok := parseDueDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	if t.Year() == timeNow().Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

// formatEstimate renders minutes as "Hh Mm", dropping the zero part. A nil
// or non-positive estimate renders nothing.
func formatEstimate(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return ""
	}
	h, m := *minutes/60, *minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// notePreview returns the first budget runes of the note, appending the
// ellipsis marker only when the note actually exceeds the budget.
func notePreview(note string, budget int) string {
	note = strings.TrimSpace(note)
	note = strings.ReplaceAll(note, "\r", " ")
	note = strings.ReplaceAll(note, "\n", " ")
	if note == "" {
		return ""
	}
	runes := []rune(note)
	if len(runes) <= budget {
		return note
	}
	return string(runes[:budget]) + "..."
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func emptyMessage(filtered bool) string {
	if filtered {
		return "No incomplete tasks in this perspective."
	}
	return "No tasks in this perspective."
}
