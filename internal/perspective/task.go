package perspective

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalid = errors.New("invalid")
	ErrDecode  = errors.New("decode")
	ErrQuery   = errors.New("query")
)

// TaskRecord is a single task as returned by a perspective query.
// Optional fields decode to their zero value (or nil) when the source
// application omits them.
type TaskRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Completed        bool     `json:"completed"`
	Flagged          bool     `json:"flagged"`
	Project          string   `json:"project,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	DueDate          string   `json:"dueDate,omitempty"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty"`
	Note             string   `json:"note,omitempty"`
	Parent           *string  `json:"parent,omitempty"`
	Children         []string `json:"children,omitempty"`
}

// Root reports whether the task has no parent in the current result set.
func (t TaskRecord) Root() bool {
	return t.Parent == nil || *t.Parent == ""
}

// TaskMap is an id-keyed snapshot of one query response. Lookup is O(1);
// Tasks and Roots return records in the order the payload listed them, so
// the renderers stay deterministic even though the wire format is a JSON
// object.
type TaskMap struct {
	order []string
	byID  map[string]TaskRecord
}

func (m *TaskMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: taskMap must be an object", ErrDecode)
	}
	m.order = nil
	m.byID = make(map[string]TaskRecord)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		id, _ := keyTok.(string)
		var rec TaskRecord
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("%w: task %q: %v", ErrDecode, id, err)
		}
		if rec.ID == "" {
			rec.ID = id
		}
		if _, dup := m.byID[id]; !dup {
			m.order = append(m.order, id)
		}
		m.byID[id] = rec
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func (m *TaskMap) Len() int {
	return len(m.order)
}

// Lookup returns the record for id. Missing ids are not an error; callers
// drop them.
func (m *TaskMap) Lookup(id string) (TaskRecord, bool) {
	t, ok := m.byID[id]
	return t, ok
}

// Tasks returns all records in payload order.
func (m *TaskMap) Tasks() []TaskRecord {
	out := make([]TaskRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// Roots returns the records with no parent, in payload order.
func (m *TaskMap) Roots() []TaskRecord {
	var out []TaskRecord
	for _, id := range m.order {
		if t := m.byID[id]; t.Root() {
			out = append(out, t)
		}
	}
	return out
}

// QueryResult is the envelope the external query collaborator produces.
type QueryResult struct {
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	TaskMap TaskMap `json:"taskMap,omitempty"`
	Count   int     `json:"count,omitempty"`
}

// DecodeResult normalizes a collaborator payload into a QueryResult. The
// payload may arrive as encoded JSON (string or bytes) or as an already
// structured value; anything else is a decode error carrying the offending
// type.
func DecodeResult(payload any) (*QueryResult, error) {
	switch v := payload.(type) {
	case *QueryResult:
		return v, nil
	case QueryResult:
		return &v, nil
	case string:
		return decodeResultBytes([]byte(v))
	case []byte:
		return decodeResultBytes(v)
	case json.RawMessage:
		return decodeResultBytes(v)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return decodeResultBytes(b)
	default:
		return nil, fmt.Errorf("%w: unexpected payload type %T", ErrDecode, payload)
	}
}

func decodeResultBytes(b []byte) (*QueryResult, error) {
	var res QueryResult
	if err := json.Unmarshal(b, &res); err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &res, nil
}
