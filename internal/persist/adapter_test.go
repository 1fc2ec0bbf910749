package persist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailbox-sync/internal/persist"
	"github.com/nhle/mailbox-sync/tests/testutil"
)

type testState struct {
	Entities map[string]string `json:"entities"`
}

func TestAdapter_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := testutil.NewTestStorage(t)
	a := persist.NewAdapter(storage, testutil.NewLogger(t))

	in := testState{Entities: map[string]string{"1": "one", "2": "two"}}
	a.Save(ctx, "threads-storage", 1, in)

	raw, ok, err := storage.GetItem(ctx, "threads-storage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":{"entities":{"1":"one","2":"two"}},"version":1}`, raw)

	var out testState
	require.True(t, a.Load(ctx, "threads-storage", 1, &out))
	assert.Equal(t, in, out)
}

func TestAdapter_LoadMissingOrUnusable(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		value string
		set   bool
	}{
		{name: "missing"},
		{name: "empty", value: "", set: true},
		{name: "malformed", value: "{not json", set: true},
		{name: "stale version", value: `{"state":{"entities":{}},"version":0}`, set: true},
		{name: "no state", value: `{"version":1}`, set: true},
		{name: "bad state", value: `{"state":{"entities":[]},"version":1}`, set: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			storage := persist.NewMemoryStorage()
			if tc.set {
				require.NoError(t, storage.SetItem(ctx, "k", tc.value))
			}
			a := persist.NewAdapter(storage, testutil.NewLogger(t))

			var out testState
			assert.False(t, a.Load(ctx, "k", 1, &out))
		})
	}
}

func TestAdapter_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	require.NoError(t, storage.SetItem(ctx, "k", `{"state":{},"version":1}`))
	storage.SetFail(errors.New("disk full"))

	a := persist.NewAdapter(storage, testutil.NewLogger(t))

	assert.NotPanics(t, func() {
		a.Save(ctx, "k", 1, testState{})
		a.Remove(ctx, "k")
	})
	var out testState
	assert.False(t, a.Load(ctx, "k", 1, &out))

	storage.SetFail(nil)
	assert.Equal(t, 1, storage.Len())
}

func TestAdapter_Remove(t *testing.T) {
	ctx := context.Background()
	storage := persist.NewMemoryStorage()
	a := persist.NewAdapter(storage, nil)

	a.Save(ctx, "k", 1, testState{Entities: map[string]string{"x": "y"}})
	assert.Equal(t, 1, storage.Len())

	a.Remove(ctx, "k")
	assert.Equal(t, 0, storage.Len())
}

func TestPersistenceError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(&persist.PersistenceError{Op: persist.OpSave, Key: "k", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `persistence save "k"`)
}
