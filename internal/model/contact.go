package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotificationPreference controls how new mail from a contact is surfaced.
type NotificationPreference string

const (
	NotifyDefault NotificationPreference = "default"
	NotifyAlways  NotificationPreference = "always_notify"
	NotifyMuted   NotificationPreference = "muted"
)

// ParseNotificationPreference maps the spellings the API has used over time
// onto the closed set of preferences. The empty string means default.
func ParseNotificationPreference(s string) (NotificationPreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return NotifyDefault, nil
	case "always_notify", "always-notify", "always":
		return NotifyAlways, nil
	case "muted", "mute":
		return NotifyMuted, nil
	default:
		return "", fmt.Errorf("unknown notification preference %q", s)
	}
}

// UnmarshalJSON validates the preference at decode time.
func (p *NotificationPreference) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding notification preference: %w", err)
	}
	if s == nil {
		*p = NotifyDefault
		return nil
	}
	parsed, err := ParseNotificationPreference(*s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Contact is a correspondent known to the mailbox.
type Contact struct {
	ID                     ID                     `json:"id"`
	Email                  string                 `json:"email"`
	DisplayName            string                 `json:"display_name,omitempty"`
	NotificationPreference NotificationPreference `json:"notification_preference"`
	IsMarkedAsSpam         bool                   `json:"is_marked_as_spam"`
}

// EntityID implements Entity.
func (c Contact) EntityID() ID { return c.ID }

// Validate implements Entity.
func (c Contact) Validate() error {
	if c.ID.IsZero() {
		return fmt.Errorf("contact has no id")
	}
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.DisplayName) == "" {
		return fmt.Errorf("contact %s has neither email nor display name", c.ID)
	}
	if _, err := ParseNotificationPreference(string(c.NotificationPreference)); err != nil {
		return fmt.Errorf("contact %s: %w", c.ID, err)
	}
	return nil
}

// Label is the name shown for the contact: the trimmed display name, or the
// email address when the display name is blank.
func (c Contact) Label() string {
	if name := strings.TrimSpace(c.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(c.Email)
}

// Normalize fills in defaults the API leaves out.
func (c Contact) Normalize() Contact {
	if c.NotificationPreference == "" {
		c.NotificationPreference = NotifyDefault
	}
	return c
}
