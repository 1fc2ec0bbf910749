package store

import (
	"context"
	"slices"

	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
)

// ContactEmailLister lists the emails exchanged with one contact.
type ContactEmailLister interface {
	ListEmailsForContact(
		ctx context.Context,
		contactID model.ID,
	) ([]model.Email, error)
}

// EmailStore caches email details. It never hydrates on its own; the owner
// calls Hydrate once a session is available.
type EmailStore struct {
	*Store[model.Email]
	byContact ContactEmailLister
}

// NewEmailStore creates the email store. byContact may be nil, in which case
// FetchForContact only reads the cache.
func NewEmailStore(
	f Fetcher[model.Email],
	byContact ContactEmailLister,
	p *persist.Adapter,
	opts Options,
) *EmailStore {
	opts.SkipHydration = true
	return &EmailStore{Store: New(EmailsKey, f, p, opts), byContact: byContact}
}

// MarkRead sets the read flag of a cached email.
func (s *EmailStore) MarkRead(
	ctx context.Context,
	id model.ID,
	read bool,
) (model.Email, bool) {
	return s.MutateLocal(ctx, id, func(e model.Email) model.Email {
		e.IsRead = read
		return e
	})
}

// ToggleStar flips the starred flag of a cached email.
func (s *EmailStore) ToggleStar(ctx context.Context, id model.ID) (model.Email, bool) {
	return s.MutateLocal(ctx, id, func(e model.Email) model.Email {
		e.IsStarred = !e.IsStarred
		return e
	})
}

// SetPinned sets the pinned flag of a cached email.
func (s *EmailStore) SetPinned(
	ctx context.Context,
	id model.ID,
	pinned bool,
) (model.Email, bool) {
	return s.MutateLocal(ctx, id, func(e model.Email) model.Email {
		e.IsPinned = pinned
		return e
	})
}

// FetchForContact refreshes the emails exchanged with a contact and merges
// them into the cache without dropping anything else. It returns the
// contact's emails newest first. On failure it returns what the cache holds
// for the contact along with the error.
func (s *EmailStore) FetchForContact(
	ctx context.Context,
	contactID model.ID,
) ([]model.Email, error) {
	if s.byContact == nil {
		return s.cachedForContact(contactID), nil
	}

	s.mu.Lock()
	startSeq, startGen := s.beginFetch()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.endFetch()
		s.mu.Unlock()
	}()

	emails, err := s.byContact.ListEmailsForContact(ctx, contactID)
	if err != nil {
		if ctx.Err() == nil {
			s.recordFailure("fetch for contact", contactID, err)
		}
		return s.cachedForContact(contactID), err
	}

	s.mu.Lock()
	if ctx.Err() != nil || s.gen != startGen {
		s.mu.Unlock()
		return s.cachedForContact(contactID), ctx.Err()
	}
	merged := make([]model.Email, 0, len(emails))
	for _, e := range emails {
		if s.edits[e.ID] > startSeq {
			if local, ok := s.entities[e.ID]; ok {
				merged = append(merged, local)
			}
			continue
		}
		s.entities[e.ID] = e
		merged = append(merged, e)
	}
	s.mu.Unlock()

	s.save(ctx)
	sortNewestFirst(merged)
	return merged, nil
}

func (s *EmailStore) cachedForContact(contactID model.ID) []model.Email {
	s.mu.Lock()
	var out []model.Email
	for _, e := range s.entities {
		if involves(e, contactID) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()

	sortNewestFirst(out)
	return out
}

func involves(e model.Email, contactID model.ID) bool {
	if e.FromContact != nil && e.FromContact.ID == contactID {
		return true
	}
	for _, c := range slices.Concat(e.ToContacts, e.CCContacts) {
		if c.ID == contactID {
			return true
		}
	}
	return false
}

func sortNewestFirst(emails []model.Email) {
	slices.SortStableFunc(emails, func(a, b model.Email) int {
		if c := b.ReceivedAt.Compare(a.ReceivedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
}
