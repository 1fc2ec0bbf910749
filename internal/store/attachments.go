package store

import (
	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
)

// AttachmentStore caches attachment metadata. Local additions and removals
// go through Put and Remove.
type AttachmentStore struct {
	*Store[model.Attachment]
}

// NewAttachmentStore creates the attachment store.
func NewAttachmentStore(
	f Fetcher[model.Attachment],
	p *persist.Adapter,
	opts Options,
) *AttachmentStore {
	return &AttachmentStore{Store: New(AttachmentsKey, f, p, opts)}
}
