package store

import (
	"context"

	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
)

// ContactStore caches the address book.
type ContactStore struct {
	*Store[model.Contact]
}

// NewContactStore creates the contact store.
func NewContactStore(
	f Fetcher[model.Contact],
	p *persist.Adapter,
	opts Options,
) *ContactStore {
	return &ContactStore{Store: New(ContactsKey, f, p, opts)}
}

// MarkAsSpam flags a cached contact as spam.
func (s *ContactStore) MarkAsSpam(
	ctx context.Context,
	id model.ID,
	spam bool,
) (model.Contact, bool) {
	return s.MutateLocal(ctx, id, func(c model.Contact) model.Contact {
		c.IsMarkedAsSpam = spam
		return c
	})
}

// SetNotificationPreference changes how a cached contact notifies.
func (s *ContactStore) SetNotificationPreference(
	ctx context.Context,
	id model.ID,
	pref model.NotificationPreference,
) (model.Contact, bool) {
	pref, err := model.ParseNotificationPreference(string(pref))
	if err != nil {
		s.logger.Warn("rejecting notification preference",
			"id", id, "err", err)
		return model.Contact{}, false
	}
	return s.MutateLocal(ctx, id, func(c model.Contact) model.Contact {
		c.NotificationPreference = pref
		return c
	})
}
