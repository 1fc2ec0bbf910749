// Package gateway talks to the remote mailbox API and turns its answers into
// validated model records.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/nhle/mailbox-sync/internal/model"
)

// Gateway exposes list and get operations per entity kind. List operations
// always return a plain sequence regardless of whether the endpoint answered
// with a bare array or a paginated envelope.
type Gateway struct {
	client   *Client
	maxPages int
}

// New creates a Gateway. maxPages bounds how many envelope pages a single
// list call follows; values below 1 mean 1.
func New(client *Client, maxPages int) *Gateway {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Gateway{client: client, maxPages: maxPages}
}

func itemPath(collection string, id model.ID) string {
	return collection + url.PathEscape(id.String()) + "/"
}

// ListThreads returns every thread.
func (g *Gateway) ListThreads(ctx context.Context) ([]model.Thread, error) {
	return listAll[model.Thread](ctx, g.client, threadsPath, g.maxPages)
}

// GetThread returns one thread with its emails.
func (g *Gateway) GetThread(ctx context.Context, id model.ID) (model.Thread, error) {
	return getOne[model.Thread](ctx, g.client, itemPath(threadsPath, id), id)
}

// ListEmails returns every email.
func (g *Gateway) ListEmails(ctx context.Context) ([]model.Email, error) {
	return listAll[model.Email](ctx, g.client, emailsPath, g.maxPages)
}

// GetEmail returns one email.
func (g *Gateway) GetEmail(ctx context.Context, id model.ID) (model.Email, error) {
	return getOne[model.Email](ctx, g.client, itemPath(emailsPath, id), id)
}

// ListContacts returns every contact.
func (g *Gateway) ListContacts(ctx context.Context) ([]model.Contact, error) {
	return listAll[model.Contact](ctx, g.client, contactsPath, g.maxPages)
}

// GetContact returns one contact.
func (g *Gateway) GetContact(ctx context.Context, id model.ID) (model.Contact, error) {
	return getOne[model.Contact](ctx, g.client, itemPath(contactsPath, id), id)
}

// ListEmailsForContact returns the emails exchanged with one contact.
func (g *Gateway) ListEmailsForContact(
	ctx context.Context,
	contactID model.ID,
) ([]model.Email, error) {
	path := itemPath(contactsPath, contactID) + "emails/"
	return listAll[model.Email](ctx, g.client, path, g.maxPages)
}

// ListAttachments returns every attachment.
func (g *Gateway) ListAttachments(ctx context.Context) ([]model.Attachment, error) {
	return listAll[model.Attachment](ctx, g.client, attachmentsPath, g.maxPages)
}

// GetAttachment returns one attachment.
func (g *Gateway) GetAttachment(ctx context.Context, id model.ID) (model.Attachment, error) {
	return getOne[model.Attachment](ctx, g.client, itemPath(attachmentsPath, id), id)
}

// DownloadAttachment returns the content of one attachment.
func (g *Gateway) DownloadAttachment(ctx context.Context, id model.ID) (Download, error) {
	path := itemPath(attachmentsPath, id) + "download"
	data, contentType, err := g.client.Fetch(ctx, path)
	if err != nil {
		return Download{}, fmt.Errorf("downloading attachment %s: %w", id, err)
	}
	return Download{ContentType: contentType, Data: data}, nil
}

// GetProfile returns the account of the signed-in user. The endpoint answers
// with either the profile object or a list holding it.
func (g *Gateway) GetProfile(ctx context.Context) (model.Profile, error) {
	body, err := g.client.Get(ctx, profilePath)
	if err != nil {
		return model.Profile{}, err
	}

	var p model.Profile
	items, _, listErr := decodePage[model.Profile](body)
	switch {
	case listErr == nil && len(items) > 0:
		p = items[0]
	case listErr == nil:
		return model.Profile{}, fmt.Errorf("GET %s: %w", profilePath, ErrNotFound)
	default:
		if err := json.Unmarshal(body, &p); err != nil {
			return model.Profile{}, &DecodeError{Path: profilePath, Err: err}
		}
	}

	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return model.Profile{}, &DecodeError{Path: profilePath, Err: err}
	}
	return p, nil
}

// Source binds one entity kind's list and get operations together so an
// entity store can consume them.
type Source[T any] struct {
	list func(ctx context.Context) ([]T, error)
	get  func(ctx context.Context, id model.ID) (T, error)
}

// List implements store.Fetcher.
func (s Source[T]) List(ctx context.Context) ([]T, error) {
	return s.list(ctx)
}

// Get implements store.Fetcher.
func (s Source[T]) Get(ctx context.Context, id model.ID) (T, error) {
	return s.get(ctx, id)
}

// Threads returns the thread source.
func (g *Gateway) Threads() Source[model.Thread] {
	return Source[model.Thread]{list: g.ListThreads, get: g.GetThread}
}

// Emails returns the email source.
func (g *Gateway) Emails() Source[model.Email] {
	return Source[model.Email]{list: g.ListEmails, get: g.GetEmail}
}

// Contacts returns the contact source.
func (g *Gateway) Contacts() Source[model.Contact] {
	return Source[model.Contact]{list: g.ListContacts, get: g.GetContact}
}

// Attachments returns the attachment source.
func (g *Gateway) Attachments() Source[model.Attachment] {
	return Source[model.Attachment]{list: g.ListAttachments, get: g.GetAttachment}
}
