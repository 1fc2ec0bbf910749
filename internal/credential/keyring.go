package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailbox"

// Open returns a keyring for the mailbox service, preferring the platform
// secret store and falling back to an encrypted file under fileDir.
func Open(fileDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("mailbox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyringStorage stores snapshot documents as keyring items. It satisfies
// persist.Storage and backs the session snapshot, which carries a bearer
// token and so does not belong in the plain database.
type KeyringStorage struct {
	ring keyring.Keyring
}

// NewKeyringStorage wraps an open keyring.
func NewKeyringStorage(ring keyring.Keyring) *KeyringStorage {
	return &KeyringStorage{ring: ring}
}

// GetItem retrieves a value by key from the keyring.
func (k *KeyringStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), true, nil
}

// SetItem stores a value by key in the keyring.
func (k *KeyringStorage) SetItem(_ context.Context, key string, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "mailbox session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// RemoveItem removes a value by key from the keyring. Removing a missing key
// is not an error.
func (k *KeyringStorage) RemoveItem(_ context.Context, key string) error {
	err := k.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
