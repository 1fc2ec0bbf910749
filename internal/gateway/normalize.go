package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nhle/mailbox-sync/internal/model"
)

// record is an entity the gateway can decode, normalize and validate.
type record[T any] interface {
	model.Entity
	Normalize() T
}

// decodePage unwraps either list shape into a plain sequence. It returns
// the next link of an envelope, or "" when there is none.
func decodePage[T any](body []byte) ([]T, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, "", errors.New("empty body")
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", fmt.Errorf("decoding list: %w", err)
		}
		return items, "", nil

	case '{':
		var env Envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, "", fmt.Errorf("decoding envelope: %w", err)
		}
		results := bytes.TrimSpace(env.Results)
		if len(results) == 0 || results[0] != '[' {
			return nil, "", errors.New(
				"object is not a paginated envelope: results is not a list")
		}
		var items []T
		if err := json.Unmarshal(results, &items); err != nil {
			return nil, "", fmt.Errorf("decoding results: %w", err)
		}
		next := ""
		if env.Next != nil {
			next = *env.Next
		}
		return items, next, nil

	default:
		return nil, "", fmt.Errorf("expected a list or an envelope, got %q",
			truncate(string(trimmed), 20))
	}
}

// normalize canonicalizes and validates every item. One invalid item fails
// the whole batch so malformed payloads never reach a store.
func normalize[T record[T]](items []T) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		n := item.Normalize()
		if err := n.Validate(); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// listAll fetches path and, for paginated answers, every following page up
// to maxPages.
func listAll[T record[T]](
	ctx context.Context,
	c *Client,
	path string,
	maxPages int,
) ([]T, error) {
	var all []T
	ref := path

	for page := 1; ref != ""; page++ {
		if page > maxPages {
			return nil, &DecodeError{
				Path: path,
				Err:  fmt.Errorf("more than %d pages", maxPages),
			}
		}

		body, err := c.Get(ctx, ref)
		if err != nil {
			return nil, err
		}

		items, next, err := decodePage[T](body)
		if err != nil {
			return nil, &DecodeError{Path: ref, Err: err}
		}
		items, err = normalize(items)
		if err != nil {
			return nil, &DecodeError{Path: ref, Err: err}
		}

		all = append(all, items...)
		ref = next
	}

	if all == nil {
		all = []T{}
	}
	return all, nil
}

// getOne fetches a single entity and checks it is the one asked for.
func getOne[T record[T]](
	ctx context.Context,
	c *Client,
	path string,
	id model.ID,
) (T, error) {
	var zero T

	body, err := c.Get(ctx, path)
	if err != nil {
		return zero, err
	}

	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return zero, &DecodeError{Path: path, Err: err}
	}
	item = item.Normalize()
	if err := item.Validate(); err != nil {
		return zero, &DecodeError{Path: path, Err: err}
	}
	if item.EntityID() != id {
		return zero, &DecodeError{
			Path: path,
			Err:  fmt.Errorf("asked for %s, got %s", id, item.EntityID()),
		}
	}
	return item, nil
}
