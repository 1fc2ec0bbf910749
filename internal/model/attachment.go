package model

import (
	"fmt"
	"strings"
	"time"
)

// Attachment is a file received with an email. PrivateFileURL is a short
// lived access URL and may be empty.
type Attachment struct {
	ID             ID         `json:"id"`
	Filename       string     `json:"filename"`
	MIMEType       string     `json:"mime_type"`
	Size           int64      `json:"size"`
	DownloadCount  int        `json:"download_count"`
	PrivateFileURL string     `json:"private_file_url,omitempty"`
	ShareURL       string     `json:"share_url,omitempty"`
	ShareURLExpiry *time.Time `json:"share_url_expiry"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EntityID implements Entity.
func (a Attachment) EntityID() ID { return a.ID }

// Validate implements Entity.
func (a Attachment) Validate() error {
	if a.ID.IsZero() {
		return fmt.Errorf("attachment has no id")
	}
	if a.Size < 0 {
		return fmt.Errorf("attachment %s has negative size %d", a.ID, a.Size)
	}
	return nil
}

// Normalize canonicalizes the MIME type.
func (a Attachment) Normalize() Attachment {
	a.MIMEType = strings.ToLower(strings.TrimSpace(a.MIMEType))
	return a
}
