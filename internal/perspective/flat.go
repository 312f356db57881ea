package perspective

import (
	"fmt"
	"strings"
)

// RenderFlat renders an already-filtered task list as a numbered listing.
// Names carry no completion or flag styling here; flagged tasks get their
// own marker line instead.
func RenderFlat(name string, tasks []TaskRecord, limit, totalCount int) string {
	shown := applyLimit(tasks, limit)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**🔭 %s** — %s\n", name, plural(len(shown), "task")))

	for i, t := range shown {
		fmt.Fprintf(&b, "\n%d. **%s**\n", i+1, strings.TrimSpace(t.Name))
		writeFlatDetail(&b, t)
	}

	writeTruncationFooter(&b, len(shown), totalCount)
	return b.String()
}

func writeFlatDetail(b *strings.Builder, t TaskRecord) {
	const indent = "   "
	if p := strings.TrimSpace(t.Project); p != "" {
		b.WriteString(indent + "📁 " + p + "\n")
	}
	if len(t.Tags) > 0 {
		b.WriteString(indent + "🏷️ " + strings.Join(t.Tags, ", ") + "\n")
	}
	if due := formatDueLong(t.DueDate); due != "" {
		b.WriteString(indent + "📅 " + due + "\n")
	}
	if t.Flagged {
		b.WriteString(indent + "🚩 Flagged\n")
	}
	if est := formatEstimate(t.EstimatedMinutes); est != "" {
		b.WriteString(indent + "⏱️ " + est + "\n")
	}
	if note := notePreview(t.Note, notePreviewFull); note != "" {
		b.WriteString(indent + "📝 " + note + "\n")
	}
	if link := TaskLink(t.ID); link != "" {
		b.WriteString(indent + "🔗 " + link + "\n")
	}
}
