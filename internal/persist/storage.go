// Package persist holds the durable key-value engines and the best-effort
// snapshot adapter entity stores persist through.
package persist

import (
	"context"
	"fmt"
)

// Storage is a durable key-value store addressed by string keys. A missing
// key is reported by ok == false, not by an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key string, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Op names the storage operation that failed.
type Op string

const (
	OpLoad   Op = "load"
	OpSave   Op = "save"
	OpRemove Op = "remove"
)

// PersistenceError reports a failed read, write, encode or decode of a
// snapshot.
type PersistenceError struct {
	Op  Op
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
