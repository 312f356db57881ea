package perspective

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFlatNumbersTasks(t *testing.T) {
	tasks := []TaskRecord{
		{ID: "a", Name: "First"},
		{ID: "b", Name: "Second"},
	}

	got := RenderFlat("Inbox", tasks, 0, 2)
	assert.Contains(t, got, "**🔭 Inbox** — 2 tasks\n")
	assert.Contains(t, got, "\n1. **First**\n")
	assert.Contains(t, got, "\n2. **Second**\n")
	assert.NotContains(t, got, "_Showing")
}

func TestRenderFlatLimitOneOfFive(t *testing.T) {
	tasks := []TaskRecord{
		{ID: "1", Name: "Only shown"},
		{ID: "2", Name: "Hidden two"},
		{ID: "3", Name: "Hidden three"},
		{ID: "4", Name: "Hidden four"},
		{ID: "5", Name: "Hidden five"},
	}

	got := RenderFlat("Inbox", tasks, 1, 5)
	assert.Contains(t, got, "— 1 task\n")
	assert.Contains(t, got, "1. **Only shown**")
	assert.NotContains(t, got, "Hidden two")
	assert.Contains(t, got, "_Showing 1 of 5 tasks._")
}

func TestRenderFlatDetailBlock(t *testing.T) {
	tasks := []TaskRecord{{
		ID:               "t9",
		Name:             "Pack bags",
		Flagged:          true,
		Project:          "Travel",
		Tags:             []string{"trip"},
		DueDate:          "2026-03-05T09:00:00Z",
		EstimatedMinutes: intPtr(75),
		Note:             "Remember the chargers",
	}}

	got := RenderFlat("Upcoming", tasks, 0, 1)
	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 9)

	// Name is emphasized but carries no flag/completion styling here.
	assert.Contains(t, got, "1. **Pack bags**\n")
	assert.Contains(t, got, "   📁 Travel\n")
	assert.Contains(t, got, "   🏷️ trip\n")
	assert.Contains(t, got, "   📅 Mar 5, 2026 9:00 AM\n")
	assert.Contains(t, got, "   🚩 Flagged\n")
	assert.Contains(t, got, "   ⏱️ 1h 15m\n")
	assert.Contains(t, got, "   📝 Remember the chargers\n")
	assert.Contains(t, got, "   🔗 omnifocus:///task/t9\n")
}

func TestRenderFlatNoteUsesFullBudget(t *testing.T) {
	note := strings.Repeat("x", 101)
	tasks := []TaskRecord{{ID: "n", Name: "Long note", Note: note}}

	got := RenderFlat("Inbox", tasks, 0, 1)
	assert.Contains(t, got, "📝 "+strings.Repeat("x", 100)+"...")
	assert.NotContains(t, got, strings.Repeat("x", 101))
}
