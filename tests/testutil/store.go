package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nhle/mailbox-sync/internal/persist"
)

// NewTestStorage creates an in-memory SQLiteStorage with all migrations
// applied. It automatically closes the storage when the test completes.
func NewTestStorage(t *testing.T) *persist.SQLiteStorage {
	t.Helper()

	s, err := persist.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("creating test storage: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test storage: %v", err)
		}
	})

	return s
}

// NewLogger returns a debug logger for tests. Output goes to stderr under
// -v and is discarded otherwise. Stores log from their own goroutines, which
// may outlive the test, so t.Log cannot be used here.
func NewLogger(t *testing.T) *slog.Logger {
	t.Helper()

	var w io.Writer = io.Discard
	if testing.Verbose() {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Date returns a fixed instant in UTC for clock-dependent tests.
func Date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
