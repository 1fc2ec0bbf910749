package app

import (
	"fmt"
	"log/slog"

	"github.com/nhle/mailbox-sync/internal/credential"
	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
	"github.com/nhle/mailbox-sync/internal/session"
)

// Open builds an App backed by the SQLite database and session backend named
// in cfg. Close releases the database.
func Open(cfg *model.AppConfig, logger *slog.Logger) (*App, error) {
	db, err := persist.NewSQLiteStorage(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	var sessionStorage persist.Storage = db
	if cfg.Session.Backend == "keyring" {
		ring, err := credential.Open(cfg.Session.KeyringDir)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("opening keyring: %w", err)
		}
		sessionStorage = credential.NewKeyringStorage(ring)
	}

	var auth session.Authenticator
	if cfg.Session.TokenURL != "" {
		auth = session.NewPasswordAuthenticator(
			cfg.Session.TokenURL,
			cfg.Session.ClientID,
			cfg.Session.ClientSecret,
		)
	}

	a, err := New(Options{
		Config:         cfg,
		Storage:        db,
		SessionStorage: sessionStorage,
		Authenticator:  auth,
		Logger:         logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return a, nil
}
