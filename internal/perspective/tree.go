package perspective

import (
	"fmt"
	"strings"
)

// RenderTree renders the perspective as a parent/child tree. Roots are the
// records without a parent, in payload order; children follow the order of
// each record's children list, dropping ids that are absent from the map.
// When hideCompleted is set, completed tasks are dropped at the root level
// and again at every recursion step, before last-sibling determination.
func RenderTree(name string, tasks *TaskMap, hideCompleted bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**🔭 %s** — task hierarchy\n\n", name))

	roots := filterTasks(tasks.Roots(), hideCompleted)
	if len(roots) == 0 {
		b.WriteString(emptyMessage(hideCompleted))
		b.WriteString("\n")
		return b.String()
	}

	// The map is assumed acyclic, but a corrupted one must not recurse
	// forever; ids already emitted are skipped.
	visited := make(map[string]bool, tasks.Len())
	for i, root := range roots {
		writeTreeNode(&b, tasks, root, "", i == len(roots)-1, hideCompleted, visited)
	}
	return b.String()
}

func writeTreeNode(b *strings.Builder, tasks *TaskMap, t TaskRecord, prefix string, last bool, hideCompleted bool, visited map[string]bool) {
	if visited[t.ID] {
		return
	}
	visited[t.ID] = true

	connector, childPad := "├── ", "│   "
	if last {
		connector, childPad = "└── ", "    "
	}
	b.WriteString(prefix + connector + FormatTaskName(t) + "\n")

	detailPrefix := prefix + childPad
	for _, line := range detailLines(t, notePreviewCompact) {
		b.WriteString(detailPrefix + "· " + line + "\n")
	}

	children := resolveChildren(tasks, t, hideCompleted, visited)
	for i, child := range children {
		writeTreeNode(b, tasks, child, prefix+childPad, i == len(children)-1, hideCompleted, visited)
	}
}

// resolveChildren maps child ids through the TaskMap in listed order. Ids
// missing from the map are dropped silently, as are completed children when
// filtering; the filtered list is what decides which sibling is "last".
func resolveChildren(tasks *TaskMap, t TaskRecord, hideCompleted bool, visited map[string]bool) []TaskRecord {
	var out []TaskRecord
	for _, id := range t.Children {
		child, ok := tasks.Lookup(id)
		if !ok {
			continue
		}
		if hideCompleted && child.Completed {
			continue
		}
		if visited[child.ID] {
			continue
		}
		out = append(out, child)
	}
	return out
}

func filterTasks(tasks []TaskRecord, hideCompleted bool) []TaskRecord {
	if !hideCompleted {
		return tasks
	}
	var out []TaskRecord
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		out = append(out, t)
	}
	return out
}
