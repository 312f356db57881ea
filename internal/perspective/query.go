package perspective

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Querier executes a named perspective query against the task application
// and returns the raw payload: either encoded JSON or an already-structured
// value. Retry, timeout and cancellation policy live behind this boundary.
type Querier interface {
	QueryPerspective(ctx context.Context, name string) (any, error)
}

// ScriptQuerier runs the query through osascript's JavaScript runtime.
// Only usable on a machine with the source application installed; tests
// substitute their own Querier.
type ScriptQuerier struct {
	// Binary overrides the osascript path, mainly for tests.
	Binary string
}

const perspectiveQueryScript = `
function run(argv) {
  const of = Application('OmniFocus');
  const doc = of.defaultDocument;
  const win = doc.documentWindows[0];
  win.perspectiveName = argv[0];

  const taskMap = {};
  let count = 0;
  const collect = (task, parent) => {
    const id = task.id();
    taskMap[id] = {
      id: id,
      name: task.name(),
      completed: task.completed(),
      flagged: task.flagged(),
      project: task.containingProject() ? task.containingProject().name() : undefined,
      tags: task.tags().map(t => t.name()),
      dueDate: task.dueDate() ? task.dueDate().toISOString() : undefined,
      estimatedMinutes: task.estimatedMinutes(),
      note: task.note(),
      parent: parent,
      children: task.tasks().map(c => c.id()),
    };
    count++;
    task.tasks().forEach(c => collect(c, id));
  };
  try {
    win.content.leaves().forEach(l => collect(l.value(), null));
    return JSON.stringify({success: true, taskMap: taskMap, count: count});
  } catch (e) {
    return JSON.stringify({success: false, error: String(e)});
  }
}
`

func (q *ScriptQuerier) QueryPerspective(ctx context.Context, name string) (any, error) {
	bin := q.Binary
	if bin == "" {
		bin = "osascript"
	}
	cmd := exec.CommandContext(ctx, bin, "-l", "JavaScript", "-e", perspectiveQueryScript, name)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("osascript: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("osascript: %v", err)
	}
	return strings.TrimSpace(string(out)), nil
}
