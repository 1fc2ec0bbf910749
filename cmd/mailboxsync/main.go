// Command mailboxsync loads the local mailbox cache, refreshes it from the
// remote API and prints the derived views.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nhle/mailbox-sync/internal/app"
	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/view"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("mailboxsync", flag.ContinueOnError)
	configPath := flags.String("config", model.DefaultConfigPath(), "path to the config file")
	envFile := flags.String("env-file", ".env", "dotenv file loaded before the config")
	login := flags.String("login", "",
		"log in as this email; the password is read from MAILBOX_PASSWORD")
	logout := flags.Bool("logout", false, "log out and wipe the local cache")
	watch := flags.Bool("watch", false,
		"keep refreshing in the background until interrupted")
	initConfig := flags.Bool("init-config", false,
		"write a default config file to -config and exit")
	download := flags.String("download", "",
		"download the attachment with this id and exit")
	outPath := flags.String("out", "",
		"file written by -download; defaults to the attachment's filename")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", *envFile, err)
	}

	if *initConfig {
		if err := model.SaveConfig(*configPath, model.DefaultAppConfig()); err != nil {
			return err
		}
		fmt.Fprintln(out, "wrote", *configPath)
		return nil
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("closing app", "err", err)
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}

	switch {
	case *logout:
		if err := a.Logout(ctx); err != nil {
			logger.Warn("remote logout failed", "err", err)
		}
		fmt.Fprintln(out, "logged out")
		return nil
	case *login != "":
		if err := a.Login(ctx, *login, os.Getenv("MAILBOX_PASSWORD")); err != nil {
			return err
		}
	}

	if *download != "" {
		att, dl, err := a.DownloadAttachment(ctx, model.ID(*download))
		if err != nil {
			return err
		}
		path := downloadTarget(".", *outPath, att)
		if err := writeDownload(path, dl); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s (%d bytes)\n", path, len(dl.Data))
		return nil
	}

	if a.Session.LoggedIn() {
		if p, err := a.Gateway.GetProfile(ctx); err != nil {
			logger.Warn("loading profile", "err", err)
		} else {
			renderProfile(out, p)
		}
	}

	// Cached data first so something shows while the network answers.
	render(out, a, time.Now())

	a.RefreshAll(ctx)
	renderStatuses(out, a.Poller.Statuses())
	render(out, a, time.Now())

	if !*watch {
		return nil
	}

	a.Poller.Start(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-a.Poller.Results():
			if res.AuthExpired {
				fmt.Fprintln(out, "session expired, run with -login to sign in again")
			}
			renderStatuses(out, a.Poller.Statuses())
		}
	}
}

func render(out io.Writer, a *app.App, now time.Time) {
	renderThreads(out, view.ThreadSections(a.Threads.All(), now), now)
	renderContacts(out, view.ContactSections(a.Contacts.All(), a.Config().Display.Locale))
	renderAttachments(out, view.AttachmentTiles(a.Attachments.All()))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
