package perspective

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubQuerier struct {
	payload any
	err     error
	calls   int
}

func (s *stubQuerier) QueryPerspective(ctx context.Context, name string) (any, error) {
	s.calls++
	return s.payload, s.err
}

func newObservedRenderer(q Querier) (*Renderer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRenderer(q, zap.New(core)), logs
}

func TestResolveModePriority(t *testing.T) {
	assert.Equal(t, ModeHierarchy, resolveMode(Options{ShowHierarchy: true, GroupByProject: true}))
	assert.Equal(t, ModeGrouped, resolveMode(Options{GroupByProject: true}))
	assert.Equal(t, ModeFlat, resolveMode(Options{}))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.HideCompleted)
	assert.Equal(t, 1000, opts.Limit)
	assert.True(t, opts.GroupByProject)
	assert.False(t, opts.ShowHierarchy)
}

func TestRenderEmptyPerspectiveNameNeverQueries(t *testing.T) {
	q := &stubQuerier{}
	r, logs := newObservedRenderer(q)

	got := r.Render(context.Background(), "   ", DefaultOptions())
	assert.True(t, strings.HasPrefix(got, "⚠️ "))
	assert.Contains(t, got, "perspective name")
	assert.Equal(t, 0, q.calls, "validation failure must not reach the querier")
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRenderDecodeFailureLogsOnce(t *testing.T) {
	q := &stubQuerier{payload: "this is not json"}
	r, logs := newObservedRenderer(q)

	got := r.Render(context.Background(), "Work", DefaultOptions())
	assert.True(t, strings.HasPrefix(got, "⚠️ Could not parse perspective result"))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRenderCollaboratorFailure(t *testing.T) {
	q := &stubQuerier{payload: `{"success":false,"error":"window busy"}`}
	r, _ := newObservedRenderer(q)

	got := r.Render(context.Background(), "Work", DefaultOptions())
	assert.Equal(t, "⚠️ Perspective query failed: window busy", got)

	// Missing collaborator message falls back to a generic one.
	q2 := &stubQuerier{payload: `{"success":false}`}
	r2, _ := newObservedRenderer(q2)
	got = r2.Render(context.Background(), "Work", DefaultOptions())
	assert.Equal(t, "⚠️ Perspective query failed: unknown error", got)
}

func TestRenderQuerierError(t *testing.T) {
	q := &stubQuerier{err: assert.AnError}
	r, logs := newObservedRenderer(q)

	got := r.Render(context.Background(), "Work", DefaultOptions())
	assert.True(t, strings.HasPrefix(got, "⚠️ Failed to query perspective"))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRenderEmptyTaskMap(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true}`}
	r, _ := newObservedRenderer(q)

	got := r.Render(context.Background(), "Inbox", DefaultOptions())
	assert.Equal(t, "**🔭 Inbox**\n\nNo incomplete tasks in this perspective.\n", got)

	opts := DefaultOptions()
	opts.HideCompleted = false
	q2 := &stubQuerier{payload: `{"success":true}`}
	r2, _ := newObservedRenderer(q2)
	got = r2.Render(context.Background(), "Inbox", opts)
	assert.Equal(t, "**🔭 Inbox**\n\nNo tasks in this perspective.\n", got)
}

func TestRenderAllCompletedFilteredAway(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{
		"a":{"id":"a","name":"Done thing","completed":true}
	},"count":1}`}
	r, _ := newObservedRenderer(q)

	got := r.Render(context.Background(), "Work", DefaultOptions())
	assert.Contains(t, got, "No incomplete tasks in this perspective.")
}

func TestRenderDispatchesHierarchyOverGrouping(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{
		"a":{"id":"a","name":"Root task","project":"Alpha"}
	},"count":1}`}
	r, _ := newObservedRenderer(q)

	opts := DefaultOptions()
	opts.ShowHierarchy = true
	got := r.Render(context.Background(), "Work", opts)
	assert.Contains(t, got, "task hierarchy")
	assert.Contains(t, got, "└── **Root task**")
}

func TestRenderDispatchesGroupedByDefault(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{
		"a":{"id":"a","name":"Grouped task","project":"Alpha"}
	},"count":1}`}
	r, _ := newObservedRenderer(q)

	got := r.Render(context.Background(), "Work", DefaultOptions())
	assert.Contains(t, got, "### 📁 Alpha")
}

func TestRenderDispatchesFlatWhenGroupingOff(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{
		"a":{"id":"a","name":"Flat task"}
	},"count":1}`}
	r, _ := newObservedRenderer(q)

	opts := DefaultOptions()
	opts.GroupByProject = false
	got := r.Render(context.Background(), "Work", opts)
	assert.Contains(t, got, "1. **Flat task**")
}

func TestRenderFiltersCompletedForFlatPath(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{
		"a":{"id":"a","name":"Open task"},
		"b":{"id":"b","name":"Closed task","completed":true}
	},"count":2}`}
	r, _ := newObservedRenderer(q)

	opts := DefaultOptions()
	opts.GroupByProject = false
	got := r.Render(context.Background(), "Work", opts)
	assert.Contains(t, got, "Open task")
	assert.NotContains(t, got, "Closed task")
	assert.Contains(t, got, "— 1 task\n")
}

func TestRenderLimitFooterAgainstFilteredTotal(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{
		"1":{"id":"1","name":"T one"},
		"2":{"id":"2","name":"T two"},
		"3":{"id":"3","name":"T three"}
	},"count":3}`}
	r, _ := newObservedRenderer(q)

	opts := DefaultOptions()
	opts.GroupByProject = false
	opts.Limit = 2
	got := r.Render(context.Background(), "Work", opts)
	assert.Contains(t, got, "_Showing 2 of 3 tasks._")
}

func TestFetchReturnsEnvelope(t *testing.T) {
	q := &stubQuerier{payload: `{"success":true,"taskMap":{"a":{"id":"a","name":"X"}},"count":1}`}
	r, _ := newObservedRenderer(q)

	res, err := r.Fetch(context.Background(), "Work")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, res.TaskMap.Len())

	_, err = r.Fetch(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalid)
}
