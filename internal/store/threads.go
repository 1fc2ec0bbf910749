package store

import (
	"context"
	"slices"

	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
)

// ThreadStore caches threads with their emails.
type ThreadStore struct {
	*Store[model.Thread]
}

// NewThreadStore creates the thread store.
func NewThreadStore(
	f Fetcher[model.Thread],
	p *persist.Adapter,
	opts Options,
) *ThreadStore {
	return &ThreadStore{Store: New(ThreadsKey, f, p, opts)}
}

// SetMuted sets the muted flag of a cached thread.
func (s *ThreadStore) SetMuted(
	ctx context.Context,
	id model.ID,
	muted bool,
) (model.Thread, bool) {
	return s.MutateLocal(ctx, id, func(t model.Thread) model.Thread {
		t.Muted = muted
		return t
	})
}

// SetArchived sets the archived flag of a cached thread.
func (s *ThreadStore) SetArchived(
	ctx context.Context,
	id model.ID,
	archived bool,
) (model.Thread, bool) {
	return s.MutateLocal(ctx, id, func(t model.Thread) model.Thread {
		t.IsArchived = archived
		return t
	})
}

// MarkLatestRead marks the freshest email of a cached thread as read. It
// reports false for unknown threads and threads without emails.
func (s *ThreadStore) MarkLatestRead(
	ctx context.Context,
	id model.ID,
) (model.Thread, bool) {
	if t, ok := s.Get(id); !ok || len(t.Emails) == 0 {
		return model.Thread{}, false
	}
	return s.MutateLocal(ctx, id, func(t model.Thread) model.Thread {
		if len(t.Emails) == 0 {
			return t
		}
		emails := slices.Clone(t.Emails)
		emails[len(emails)-1].IsRead = true
		t.Emails = emails
		return t
	})
}
