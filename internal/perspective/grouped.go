package perspective

import (
	"fmt"
	"strings"
)

// bucketList groups tasks by project in first-seen order. Project-less
// tasks land in a separate inbox bucket that always renders last. Built as
// an explicit slice plus index map so the order never depends on map
// iteration.
type bucketList struct {
	names   []string
	index   map[string]int
	buckets [][]TaskRecord
	inbox   []TaskRecord
}

func newBucketList() *bucketList {
	return &bucketList{index: make(map[string]int)}
}

func (bl *bucketList) add(t TaskRecord) {
	project := strings.TrimSpace(t.Project)
	if project == "" {
		bl.inbox = append(bl.inbox, t)
		return
	}
	i, ok := bl.index[project]
	if !ok {
		i = len(bl.names)
		bl.index[project] = i
		bl.names = append(bl.names, project)
		bl.buckets = append(bl.buckets, nil)
	}
	bl.buckets[i] = append(bl.buckets[i], t)
}

// RenderGrouped renders an already-filtered task list bucketed by project.
// The limit keeps the first limit tasks when positive; totalCount is the
// pre-limit count and drives the truncation footer.
func RenderGrouped(name string, tasks []TaskRecord, limit, totalCount int) string {
	shown := applyLimit(tasks, limit)

	bl := newBucketList()
	for _, t := range shown {
		bl.add(t)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**🔭 %s** — %s in %s\n", name,
		plural(len(shown), "task"), plural(len(bl.names), "project")))

	for i, project := range bl.names {
		b.WriteString("\n### 📁 " + project + "\n")
		for _, t := range bl.buckets[i] {
			b.WriteString(groupedLine(t))
		}
	}
	if len(bl.inbox) > 0 {
		b.WriteString("\n### 📥 Inbox\n")
		for _, t := range bl.inbox {
			b.WriteString(groupedLine(t))
		}
	}

	writeTruncationFooter(&b, len(shown), totalCount)
	return b.String()
}

func groupedLine(t TaskRecord) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(statusGlyph(t))
	b.WriteString(" **")
	b.WriteString(strings.TrimSpace(t.Name))
	b.WriteString("**")
	if len(t.Tags) > 0 {
		b.WriteString(" `")
		b.WriteString(strings.Join(t.Tags, ", "))
		b.WriteString("`")
	}
	if due := formatDueShort(t.DueDate); due != "" {
		b.WriteString(" 📅 ")
		b.WriteString(due)
	}
	if est := formatEstimate(t.EstimatedMinutes); est != "" {
		b.WriteString(" ⏱️ ")
		b.WriteString(est)
	}
	if link := TaskLink(t.ID); link != "" {
		b.WriteString(" → ")
		b.WriteString(link)
	}
	b.WriteString("\n")
	return b.String()
}

func applyLimit(tasks []TaskRecord, limit int) []TaskRecord {
	if limit > 0 && len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}

func writeTruncationFooter(b *strings.Builder, shown, total int) {
	if total > shown {
		fmt.Fprintf(b, "\n_Showing %d of %d tasks._\n", shown, total)
	}
}
