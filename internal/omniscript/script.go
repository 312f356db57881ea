// Package omniscript generates the automation-language snippets used to
// write task fields back into the source application. Generation is
// deterministic text templating; nothing here executes a script.
package omniscript

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid")

// JXA Date months are zero-based, hence the int(m)-1 below.
const dueDateScriptTemplate = `(() => {
  const of = Application('OmniFocus');
  const doc = of.defaultDocument;
  const matches = doc.flattenedTasks.whose({name: "%s"})();
  if (matches.length === 0) {
    return "task not found";
  }
  matches[0].dueDate = new Date(%d, %d, %d, 17, 0, 0);
  return "ok";
})();`

// DueDateScript returns a snippet that assigns a 5pm due date on the given
// day to the first task matching taskName. The date must be YYYY-MM-DD.
func DueDateScript(taskName, date string) (string, error) {
	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return "", fmt.Errorf("%w: task name is required", ErrInvalid)
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalid, date)
	}
	y, m, d := day.Date()
	return fmt.Sprintf(dueDateScriptTemplate, escapeJS(taskName), y, int(m)-1, d), nil
}

func escapeJS(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}
