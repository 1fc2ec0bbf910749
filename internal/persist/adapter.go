package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// snapshot is the document written under each storage key.
type snapshot struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Adapter serializes store state to JSON text on top of a Storage. It never
// returns errors: persistence is best effort and the in-memory state is the
// source of truth for a running session, so failures are logged and the
// operation becomes a no-op.
type Adapter struct {
	storage Storage
	logger  *slog.Logger
}

// NewAdapter wraps storage. A nil logger uses slog.Default().
func NewAdapter(storage Storage, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{storage: storage, logger: logger}
}

// Load decodes the snapshot stored under key into state. It reports false
// when nothing usable is stored: the key is absent, the storage failed, the
// document is malformed, or it was written with a different version.
func (a *Adapter) Load(ctx context.Context, key string, version int, state any) bool {
	raw, ok, err := a.storage.GetItem(ctx, key)
	if err != nil {
		a.fail(OpLoad, key, err)
		return false
	}
	if !ok || raw == "" {
		return false
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		a.fail(OpLoad, key, fmt.Errorf("decoding snapshot: %w", err))
		return false
	}
	if snap.Version != version {
		a.logger.Info("ignoring snapshot with stale version",
			"key", key, "version", snap.Version, "want", version)
		return false
	}
	if len(snap.State) == 0 {
		return false
	}
	if err := json.Unmarshal(snap.State, state); err != nil {
		a.fail(OpLoad, key, fmt.Errorf("decoding state: %w", err))
		return false
	}
	return true
}

// Save encodes state and writes it under key.
func (a *Adapter) Save(ctx context.Context, key string, version int, state any) {
	encoded, err := json.Marshal(state)
	if err != nil {
		a.fail(OpSave, key, fmt.Errorf("encoding state: %w", err))
		return
	}
	doc, err := json.Marshal(snapshot{State: encoded, Version: version})
	if err != nil {
		a.fail(OpSave, key, fmt.Errorf("encoding snapshot: %w", err))
		return
	}
	if err := a.storage.SetItem(ctx, key, string(doc)); err != nil {
		a.fail(OpSave, key, err)
	}
}

// Remove deletes the snapshot stored under key.
func (a *Adapter) Remove(ctx context.Context, key string) {
	if err := a.storage.RemoveItem(ctx, key); err != nil {
		a.fail(OpRemove, key, err)
	}
}

func (a *Adapter) fail(op Op, key string, err error) {
	perr := &PersistenceError{Op: op, Key: key, Err: err}
	a.logger.Warn("persistence failed", "op", string(op), "key", key, "err", perr)
}
