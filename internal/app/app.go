// Package app wires the session, the gateway and the entity stores into one
// application context and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailbox-sync/internal/gateway"
	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
	"github.com/nhle/mailbox-sync/internal/session"
	"github.com/nhle/mailbox-sync/internal/store"
	appsync "github.com/nhle/mailbox-sync/internal/sync"
)

// Store names used for refresh results and statuses.
const (
	ThreadsName     = "threads"
	ContactsName    = "contacts"
	AttachmentsName = "attachments"
	EmailsName      = "emails"
)

// ErrNoAuthenticator is returned by Login when no token endpoint is
// configured.
var ErrNoAuthenticator = errors.New("no token_url configured for login")

// Options holds the dependencies of New.
type Options struct {
	Config *model.AppConfig

	// Storage persists entity snapshots.
	Storage persist.Storage

	// SessionStorage persists the session. Nil means Storage.
	SessionStorage persist.Storage

	// Authenticator performs login. Nil makes Login fail.
	Authenticator session.Authenticator

	// Transport is the base HTTP transport of the gateway client.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// App is the application context. Views receive it instead of reaching for
// globals.
type App struct {
	Session     *session.Provider
	Gateway     *gateway.Gateway
	Threads     *store.ThreadStore
	Contacts    *store.ContactStore
	Attachments *store.AttachmentStore
	Emails      *store.EmailStore
	Poller      *appsync.Poller

	cfg     *model.AppConfig
	logger  *slog.Logger
	closers []func() error
}

// New builds every component from opts. Nothing is loaded until Start.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Storage == nil {
		return nil, errors.New("app needs a storage")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionStorage := opts.SessionStorage
	if sessionStorage == nil {
		sessionStorage = opts.Storage
	}
	auth := opts.Authenticator
	if auth == nil {
		auth = noAuthenticator{}
	}

	sess := session.NewProvider(auth, persist.NewAdapter(sessionStorage, logger), logger)

	client, err := gateway.NewClient(cfg.API.BaseURL, gateway.ClientOptions{
		Credentials: sess,
		Timeout:     time.Duration(cfg.API.TimeoutSec) * time.Second,
		MaxRetries:  cfg.API.MaxRetries,
		Transport:   opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api client: %w", err)
	}
	gw := gateway.New(client, cfg.API.MaxPages)

	adapter := persist.NewAdapter(opts.Storage, logger)
	storeOpts := store.Options{
		Logger: logger,
		Retry: store.RetryPolicy{
			Attempts:     cfg.Sync.RetryAttempts,
			InitialDelay: time.Duration(cfg.Sync.RetryInitialMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Sync.RetryMaxMs) * time.Millisecond,
		},
	}

	refreshEvery := time.Duration(cfg.Sync.RefreshIntervalSec) * time.Second
	a := &App{
		Session:     sess,
		Gateway:     gw,
		Threads:     store.NewThreadStore(gw.Threads(), adapter, storeOpts),
		Contacts:    store.NewContactStore(gw.Contacts(), adapter, storeOpts),
		Attachments: store.NewAttachmentStore(gw.Attachments(), adapter, storeOpts),
		Emails:      store.NewEmailStore(gw.Emails(), gw, adapter, storeOpts),
		Poller:      appsync.New(refreshEvery, logger),
		cfg:         cfg,
		logger:      logger,
	}
	a.Poller.Register(ThreadsName, a.Threads)
	a.Poller.Register(ContactsName, a.Contacts)
	a.Poller.Register(AttachmentsName, a.Attachments)
	return a, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *model.AppConfig {
	return a.cfg
}

// Start restores and checks the session, then hydrates every store whose
// data does not depend on it. The email store follows once a session exists.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.CheckSession(ctx); err != nil {
		a.logger.Warn("restored session is not usable", "err", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range a.hydrators() {
		g.Go(func() error {
			h.Hydrate(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if a.Session.LoggedIn() {
		a.Emails.Hydrate(ctx)
	}
	a.logger.Info("started", "logged_in", a.Session.LoggedIn())
	return ctx.Err()
}

type hydrator interface {
	Hydrate(ctx context.Context)
}

func (a *App) hydrators() []hydrator {
	return []hydrator{a.Threads, a.Contacts, a.Attachments}
}

// Login signs in and makes the email store available.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := a.Session.Login(ctx, email, password); err != nil {
		return err
	}
	a.Emails.Hydrate(ctx)
	return nil
}

// Logout ends the session and wipes every store. Local state is cleared even
// when the remote sign-out fails; that error is still returned.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	a.ClearAll(ctx)
	return err
}

// DownloadAttachment returns an attachment record together with its content.
func (a *App) DownloadAttachment(
	ctx context.Context,
	id model.ID,
) (model.Attachment, gateway.Download, error) {
	att, ok := a.Attachments.FetchByID(ctx, id)
	if !ok {
		if err := a.Attachments.Err(); err != nil {
			return model.Attachment{}, gateway.Download{}, err
		}
		return model.Attachment{}, gateway.Download{},
			fmt.Errorf("attachment %s: %w", id, gateway.ErrNotFound)
	}

	dl, err := a.Gateway.DownloadAttachment(ctx, id)
	if err != nil {
		return att, gateway.Download{}, err
	}
	return att, dl, nil
}

// ClearAll empties every store and persists the empty state.
func (a *App) ClearAll(ctx context.Context) {
	a.Threads.Clear(ctx)
	a.Contacts.Clear(ctx)
	a.Attachments.Clear(ctx)
	a.Emails.Clear(ctx)
}

// RefreshAll reloads every polled store once and reports the outcome of each.
func (a *App) RefreshAll(ctx context.Context) []appsync.Result {
	return a.Poller.RunOnce(ctx)
}

// Close stops background refreshes and releases owned resources.
func (a *App) Close() error {
	a.Poller.Stop()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noAuthenticator struct{}

func (noAuthenticator) SignIn(context.Context, string, string) (*oauth2.Token, error) {
	return nil, ErrNoAuthenticator
}

func (noAuthenticator) SignOut(context.Context, *oauth2.Token) error {
	return nil
}
