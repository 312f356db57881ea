package perspective

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

// Mode is the single render mode chosen per invocation.
type Mode int

const (
	ModeGrouped Mode = iota
	ModeHierarchy
	ModeFlat
)

func (m Mode) String() string {
	switch m {
	case ModeHierarchy:
		return "hierarchy"
	case ModeFlat:
		return "flat"
	default:
		return "grouped"
	}
}

// Options are the recognized presentation options.
type Options struct {
	HideCompleted  bool
	Limit          int
	ShowHierarchy  bool
	GroupByProject bool
}

// DefaultOptions returns the documented defaults: completed tasks hidden,
// limit 1000, grouped by project.
func DefaultOptions() Options {
	return Options{
		HideCompleted:  true,
		Limit:          1000,
		GroupByProject: true,
	}
}

// resolveMode computes the single mode once; hierarchy wins over grouping,
// flat is the fallback when grouping is disabled too.
func resolveMode(o Options) Mode {
	switch {
	case o.ShowHierarchy:
		return ModeHierarchy
	case o.GroupByProject:
		return ModeGrouped
	default:
		return ModeFlat
	}
}

// Renderer runs a perspective query through its collaborator and renders
// the result. Every failure is converted to a user-facing string at this
// boundary; Render never returns an error.
type Renderer struct {
	querier Querier
	logger  *zap.Logger
}

func NewRenderer(q Querier, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{querier: q, logger: logger}
}

// Render executes the named perspective query and renders it in exactly
// one mode.
func (r *Renderer) Render(ctx context.Context, perspective string, opts Options) string {
	renderID := newRenderID()
	perspective = strings.TrimSpace(perspective)
	if perspective == "" {
		return r.fail(renderID, perspective, "Please provide a perspective name.",
			fmt.Errorf("%w: perspective name is required", ErrInvalid))
	}

	result, msg, err := r.fetch(ctx, perspective)
	if err != nil {
		return r.fail(renderID, perspective, msg, err)
	}

	mode := resolveMode(opts)
	r.logger.Debug("rendering perspective",
		zap.String("render_id", renderID),
		zap.String("perspective", perspective),
		zap.Stringer("mode", mode),
		zap.Int("tasks", result.TaskMap.Len()))

	if mode == ModeHierarchy {
		return RenderTree(perspective, &result.TaskMap, opts.HideCompleted)
	}

	all := result.TaskMap.Tasks()
	tasks := filterTasks(all, opts.HideCompleted)
	if len(tasks) == 0 {
		return fmt.Sprintf("**🔭 %s**\n\n%s\n", perspective, emptyMessage(opts.HideCompleted))
	}
	if mode == ModeFlat {
		return RenderFlat(perspective, tasks, opts.Limit, len(tasks))
	}
	return RenderGrouped(perspective, tasks, opts.Limit, len(tasks))
}

// Fetch runs the query and normalizes its payload without rendering. Used
// by callers that want the raw envelope (exports).
func (r *Renderer) Fetch(ctx context.Context, perspective string) (*QueryResult, error) {
	perspective = strings.TrimSpace(perspective)
	if perspective == "" {
		return nil, fmt.Errorf("%w: perspective name is required", ErrInvalid)
	}
	result, _, err := r.fetch(ctx, perspective)
	return result, err
}

// fetch covers the query call, payload normalization and the collaborator
// success flag. The second return value is the user-facing message for the
// failure, empty on success.
func (r *Renderer) fetch(ctx context.Context, perspective string) (*QueryResult, string, error) {
	payload, err := r.querier.QueryPerspective(ctx, perspective)
	if err != nil {
		return nil, "Failed to query perspective: " + err.Error(),
			fmt.Errorf("%w: %v", ErrQuery, err)
	}
	result, err := DecodeResult(payload)
	if err != nil {
		return nil, "Could not parse perspective result: " + err.Error(), err
	}
	if !result.Success {
		msg := strings.TrimSpace(result.Error)
		if msg == "" {
			msg = "unknown error"
		}
		return nil, "Perspective query failed: " + msg,
			fmt.Errorf("%w: %s", ErrQuery, msg)
	}
	return result, "", nil
}

func (r *Renderer) fail(renderID, perspective, msg string, err error) string {
	r.logger.Error("perspective render failed",
		zap.String("render_id", renderID),
		zap.String("perspective", perspective),
		zap.Error(err))
	return "⚠️ " + msg
}

func newRenderID() string {
	t := ulid.Timestamp(timeNow())
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToLower(id.String())
}
