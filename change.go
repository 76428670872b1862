package propinspect

import (
	"bytes"
	"encoding/json"
)

// Change is one keyed entry of a sparse document patch: either an upsert of
// a (partial) value or a deletion. A key absent from the patch map is left
// unchanged. On the wire a deletion is JSON null.
type Change[T any] struct {
	deleted bool
	value   T
}

// Upsert returns a change that writes v.
func Upsert[T any](v T) Change[T] {
	return Change[T]{value: v}
}

// Remove returns a change that deletes the keyed entry.
func Remove[T any]() Change[T] {
	return Change[T]{deleted: true}
}

// IsDelete reports whether the change removes the entry.
func (c Change[T]) IsDelete() bool {
	return c.deleted
}

// Value returns the upserted value, or false for a deletion.
func (c Change[T]) Value() (T, bool) {
	return c.value, !c.deleted
}

// MarshalJSON encodes deletions as null.
func (c Change[T]) MarshalJSON() ([]byte, error) {
	if c.deleted {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON decodes null as a deletion and anything else as an upsert.
func (c *Change[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = Remove[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Upsert(v)
	return nil
}
