package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Email is a single message. Contacts embedded in an email are copies taken
// at fetch time and go stale until the email is fetched again.
type Email struct {
	ID                ID           `json:"id"`
	ThreadID          ID           `json:"thread_id,omitempty"`
	FromEmail         string       `json:"from_email"`
	FromContact       *Contact     `json:"from_contact"`
	ToContacts        []Contact    `json:"to_contacts"`
	CCContacts        []Contact    `json:"cc_contacts"`
	Subject           string       `json:"subject"`
	Body              string       `json:"body"`
	SanitizedHTMLBody string       `json:"sanitized_html_body"`
	IsRead            bool         `json:"is_read"`
	IsStarred         bool         `json:"is_starred"`
	IsArchived        bool         `json:"is_archived"`
	IsPinned          bool         `json:"is_pinned"`
	IsSnoozed         bool         `json:"is_snoozed"`
	SnoozedUntil      *time.Time   `json:"snoozed_until"`
	MessageID         string       `json:"message_id,omitempty"`
	InReplyTo         *string      `json:"in_reply_to,omitempty"`
	Direction         string       `json:"direction,omitempty"`
	ReceivedAt        time.Time    `json:"received_at"`
	Attachments       []Attachment `json:"attachments,omitempty"`
}

// EntityID implements Entity.
func (e Email) EntityID() ID { return e.ID }

// Validate implements Entity.
func (e Email) Validate() error {
	if e.ID.IsZero() {
		return fmt.Errorf("email has no id")
	}
	if e.FromContact != nil {
		if err := e.FromContact.Validate(); err != nil {
			return fmt.Errorf("email %s from_contact: %w", e.ID, err)
		}
	}
	for _, a := range e.Attachments {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("email %s: %w", e.ID, err)
		}
	}
	return nil
}

// Sender returns the label of the sending contact when one is attached,
// otherwise the raw from address.
func (e Email) Sender() string {
	if e.FromContact != nil {
		if label := e.FromContact.Label(); label != "" {
			return label
		}
	}
	return strings.TrimSpace(e.FromEmail)
}

// Normalize copies the slices so the returned email shares no backing
// arrays with the decoded payload.
func (e Email) Normalize() Email {
	if e.FromContact != nil {
		c := e.FromContact.Normalize()
		e.FromContact = &c
	}
	e.ToContacts = normalizeContacts(e.ToContacts)
	e.CCContacts = normalizeContacts(e.CCContacts)
	e.Attachments = slices.Clone(e.Attachments)
	return e
}

func normalizeContacts(in []Contact) []Contact {
	if in == nil {
		return nil
	}
	out := make([]Contact, len(in))
	for i, c := range in {
		out[i] = c.Normalize()
	}
	return out
}
