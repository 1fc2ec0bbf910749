package model

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// Thread is a conversation. Emails are ordered by arrival so the last
// element is always the freshest message.
type Thread struct {
	ID           ID         `json:"id"`
	Subject      string     `json:"subject"`
	CreatedAt    time.Time  `json:"created_at"`
	Muted        bool       `json:"muted"`
	IsSnoozed    bool       `json:"is_snoozed"`
	SnoozedUntil *time.Time `json:"snoozed_until"`
	IsArchived   bool       `json:"is_archived"`
	IsTrashed    bool       `json:"is_trashed"`
	Starter      *Contact   `json:"starter"`
	Emails       []Email    `json:"emails"`
}

// EntityID implements Entity.
func (t Thread) EntityID() ID { return t.ID }

// Validate implements Entity. A thread carries at least one email and the
// sequence must be ordered by received_at; Normalize establishes that
// ordering.
func (t Thread) Validate() error {
	if t.ID.IsZero() {
		return fmt.Errorf("thread has no id")
	}
	if len(t.Emails) == 0 {
		return fmt.Errorf("thread %s has no emails", t.ID)
	}
	if t.Starter != nil {
		if err := t.Starter.Validate(); err != nil {
			return fmt.Errorf("thread %s starter: %w", t.ID, err)
		}
	}
	for i, e := range t.Emails {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("thread %s: %w", t.ID, err)
		}
		if i > 0 && e.ReceivedAt.Before(t.Emails[i-1].ReceivedAt) {
			return fmt.Errorf("thread %s: emails out of order at %s",
				t.ID, e.ID)
		}
	}
	return nil
}

// Normalize sorts the emails by arrival and normalizes each of them.
func (t Thread) Normalize() Thread {
	if t.Starter != nil {
		c := t.Starter.Normalize()
		t.Starter = &c
	}
	emails := make([]Email, len(t.Emails))
	for i, e := range t.Emails {
		emails[i] = e.Normalize()
	}
	sort.SliceStable(emails, func(i, j int) bool {
		return emails[i].ReceivedAt.Before(emails[j].ReceivedAt)
	})
	t.Emails = emails
	return t
}

// Latest returns the most recently received email.
func (t Thread) Latest() (Email, bool) {
	if len(t.Emails) == 0 {
		return Email{}, false
	}
	return t.Emails[len(t.Emails)-1], true
}

// LastActivity is the received time of the freshest email.
func (t Thread) LastActivity() time.Time {
	latest, _ := t.Latest()
	return latest.ReceivedAt
}

// Unread reports whether the freshest email has not been read.
func (t Thread) Unread() bool {
	latest, ok := t.Latest()
	return ok && !latest.IsRead
}

// Senders returns the distinct from addresses in arrival order.
func (t Thread) Senders() []string {
	var senders []string
	for _, e := range t.Emails {
		if e.FromEmail == "" || slices.Contains(senders, e.FromEmail) {
			continue
		}
		senders = append(senders, e.FromEmail)
	}
	return senders
}
