// Package audit defines the change history kept for contacts and custom
// fields, and the helpers services use to fill it.
package audit

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	appctx "crmapi/internal/core/context"
	"crmapi/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one stored audit record. Changes holds a JSON object of
// field -> Change.
type Entry struct {
	ID         id.ID           `json:"id" db:"id"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   id.ID           `json:"entity_id" db:"entity_id"`
	Action     Action          `json:"action" db:"action"`
	UserID     string          `json:"user_id,omitempty" db:"user_id"`
	Changes    json.RawMessage `json:"changes" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Change is the old and new value of one column.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Recorder persists audit entries.
// before and after are db-tagged structs (or nil for create/delete).
type Recorder interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action Action, before, after any) error
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Diff returns the columns whose values differ between two snapshots.
// Pointers are compared by the value they point to.
func Diff(before, after map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for key, newVal := range after {
		oldVal, ok := before[key]
		if !ok || !equal(oldVal, newVal) {
			changes[key] = Change{Old: deref(oldVal), New: deref(newVal)}
		}
	}
	for key, oldVal := range before {
		if _, ok := after[key]; !ok {
			changes[key] = Change{Old: deref(oldVal)}
		}
	}
	return changes
}

func equal(a, b any) bool {
	a, b = deref(a), deref(b)
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// Actor returns the caller's user ID, or nil for anonymous or
// non-UUID principals.
func Actor(ctx context.Context) *id.ID {
	userID, err := id.Parse(appctx.GetUserID(ctx))
	if err != nil {
		return nil
	}
	return &userID
}
