// Package core holds the domain of tillage: the records (tasks and notes), the
// storage contract they are persisted through, and the services that give them
// their semantics.
package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// TimestampLayout is the ISO-8601 layout used for every persisted timestamp.
// It always carries millisecond precision and a literal Z (UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant that serializes as an ISO-8601 string with
// millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// ParseTimestamp parses an ISO-8601 (RFC 3339) string.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return NewTimestamp(t), nil
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Timestamp) UnmarshalText(data []byte) error {
	parsed, err := ParseTimestamp(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid timestamp %s: expected a string", data)
	}
	return t.UnmarshalText(data[1 : len(data)-1])
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	return t.UnmarshalText([]byte(value.Value))
}

// Record is anything a Repository can persist: it only needs a stable id.
type Record interface {
	GetID() string
}

// Cloner is implemented by records holding reference fields.
type Cloner[T any] interface {
	Clone() T
}

// CloneRecords copies records, deep-copying each one that implements Cloner.
func CloneRecords[T any](records []T) []T {
	if records == nil {
		return nil
	}
	out := make([]T, len(records))
	for i, r := range records {
		if c, ok := any(r).(Cloner[T]); ok {
			out[i] = c.Clone()
		} else {
			out[i] = r
		}
	}
	return out
}

// TaskStatus is the kanban column a task sits in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known columns.
func (s TaskStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Task is a card on the board.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
	CreatedAt   Timestamp  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   Timestamp  `json:"updatedAt" yaml:"updatedAt"`
}

func (t Task) GetID() string { return t.ID }

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// TaskPatch is a merge-patch: nil fields are left untouched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Board groups tasks by status, keeping stored order inside each column.
type Board struct {
	Todo       []Task `json:"todo"`
	InProgress []Task `json:"in_progress"`
	Done       []Task `json:"done"`
}

// Note is a titled piece of text with free-form tags.
type Note struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Tags      []string  `json:"tags" yaml:"tags"`
	CreatedAt Timestamp `json:"createdAt" yaml:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt" yaml:"updatedAt"`
}

func (n Note) GetID() string { return n.ID }

// Clone returns a copy of n that shares no memory with it.
func (n Note) Clone() Note {
	n.Tags = slices.Clone(n.Tags)
	return n
}

// NoteInput carries the fields accepted when creating a note.
type NoteInput struct {
	Title   string   `json:"title"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// NotePatch is a merge-patch: nil fields are left untouched.
type NotePatch struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// EventType represents the type of change in a collection.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in a collection. ID is empty when the change came
// from outside the process and could not be attributed to a single record.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	ID         string    `json:"id,omitempty"`
	Source     string    `json:"source"`
	Timestamp  int64     `json:"timestamp"` // Unix milliseconds
}

func (e Event) String() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s (%s)", e.Type, e.Collection, e.Source)
	}
	return fmt.Sprintf("%s %s/%s (%s)", e.Type, e.Collection, e.ID, e.Source)
}

type contextKey string

// ChangeReasonKey is the context key for passing the change reason (commit
// message) down to versioning adapters.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason attaches a change reason to ctx.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, ChangeReasonKey, reason)
}

// ChangeReason extracts the change reason from ctx, or returns fallback.
func ChangeReason(ctx context.Context, fallback string) string {
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		return val
	}
	return fallback
}
