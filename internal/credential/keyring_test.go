package credential_test

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailbox-sync/internal/credential"
	"github.com/nhle/mailbox-sync/internal/persist"
)

var _ persist.Storage = (*credential.KeyringStorage)(nil)

func TestKeyringStorage(t *testing.T) {
	ctx := context.Background()
	s := credential.NewKeyringStorage(keyring.NewArrayKeyring(nil))

	_, ok, err := s.GetItem(ctx, "auth-storage")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "auth-storage", `{"version":1}`))

	v, ok, err := s.GetItem(ctx, "auth-storage")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"version":1}`, v)

	require.NoError(t, s.RemoveItem(ctx, "auth-storage"))
	require.NoError(t, s.RemoveItem(ctx, "auth-storage"))

	_, ok, err = s.GetItem(ctx, "auth-storage")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyringStorage_WithAdapter(t *testing.T) {
	ctx := context.Background()
	a := persist.NewAdapter(credential.NewKeyringStorage(keyring.NewArrayKeyring(nil)), nil)

	type state struct {
		LoggedIn bool `json:"isLoggedIn"`
	}
	a.Save(ctx, "auth-storage", 1, state{LoggedIn: true})

	var out state
	require.True(t, a.Load(ctx, "auth-storage", 1, &out))
	assert.True(t, out.LoggedIn)
}
