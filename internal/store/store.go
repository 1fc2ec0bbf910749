// Package store keeps the client-side cache of remote mailbox entities.
//
// A Store owns an in-memory map of one entity kind keyed by id. Reads are
// served from the map; misses and refreshes go through a Fetcher; every
// change is persisted through a persist.Adapter so the next process can
// hydrate the map before the network answers.
//
// Ordering rules:
//
//   - FetchAll replaces the whole map in a single assignment. Entities edited
//     locally after the fetch was issued keep their local value; edits issued
//     before it are superseded.
//   - At most one FetchByID call per id is outstanding. Later callers wait for
//     it instead of issuing their own request.
//   - A result is only applied if someone is still waiting for it and the
//     store has not been cleared since the request was issued.
package store

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nhle/mailbox-sync/internal/gateway"
	"github.com/nhle/mailbox-sync/internal/model"
	"github.com/nhle/mailbox-sync/internal/persist"
)

// Storage keys. They are disjoint per store and must never collide.
const (
	ThreadsKey     = "threads-storage"
	ContactsKey    = "contacts-storage"
	AttachmentsKey = "attachments-storage"
	EmailsKey      = "emails-storage"
)

const (
	snapshotVersion = 1
	saveTimeout     = 10 * time.Second
)

// Fetcher is the remote side of one entity kind.
type Fetcher[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id model.ID) (T, error)
}

// RetryPolicy bounds the retries FetchAll makes on network failures.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy is used when Options.Retry is zero.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:     3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

// Options configures a Store.
type Options struct {
	Logger *slog.Logger
	Retry  RetryPolicy

	// SkipHydration disables the lazy hydration fetches otherwise perform
	// first. The owner must call Hydrate once its prerequisites are met.
	SkipHydration bool
}

type snapshotState[T any] struct {
	Entities map[model.ID]T `json:"entities"`
}

// call is one outstanding FetchByID request shared by every waiter.
type call[T any] struct {
	done     chan struct{}
	cancel   context.CancelFunc
	waiters  int
	finished bool
	val      T
	ok       bool
}

// Store is the cache for one entity kind. It is safe for concurrent use.
type Store[T model.Entity] struct {
	key           string
	fetcher       Fetcher[T]
	persist       *persist.Adapter
	logger        *slog.Logger
	retry         RetryPolicy
	skipHydration bool

	hydrateMu sync.Mutex
	saveMu    sync.Mutex

	mu       sync.Mutex
	entities map[model.ID]T
	loading  int
	err      error
	hydrated bool
	seq      uint64
	edits    map[model.ID]uint64
	fetching int
	gen      uint64
	inflight map[model.ID]*call[T]
}

// New creates an empty store persisting under key.
func New[T model.Entity](
	key string,
	fetcher Fetcher[T],
	p *persist.Adapter,
	opts Options,
) *Store[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retry := opts.Retry
	if retry.Attempts < 1 {
		retry = DefaultRetryPolicy
	}
	return &Store[T]{
		key:           key,
		fetcher:       fetcher,
		persist:       p,
		logger:        logger.With("store", key),
		retry:         retry,
		skipHydration: opts.SkipHydration,
		entities:      make(map[model.ID]T),
		edits:         make(map[model.ID]uint64),
		inflight:      make(map[model.ID]*call[T]),
	}
}

// Key returns the storage key of the store.
func (s *Store[T]) Key() string {
	return s.key
}

// Hydrate merges the persisted snapshot into the map once. Entities already
// present are kept. Later calls are no-ops.
func (s *Store[T]) Hydrate(ctx context.Context) {
	s.hydrateMu.Lock()
	defer s.hydrateMu.Unlock()

	if s.Hydrated() {
		return
	}

	var st snapshotState[T]
	loaded := s.persist.Load(ctx, s.key, snapshotVersion, &st)

	restored, skipped := 0, 0
	s.mu.Lock()
	for id, e := range st.Entities {
		if id != e.EntityID() || e.Validate() != nil {
			skipped++
			continue
		}
		if _, ok := s.entities[id]; ok {
			continue
		}
		s.entities[id] = e
		restored++
	}
	s.hydrated = true
	s.mu.Unlock()

	s.logger.Info("hydrated", "found", loaded, "restored", restored, "skipped", skipped)
}

// Hydrated reports whether Hydrate has completed.
func (s *Store[T]) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

func (s *Store[T]) ensureHydrated(ctx context.Context) {
	if !s.skipHydration && !s.Hydrated() {
		s.Hydrate(ctx)
	}
}

// FetchAll refreshes the whole map from the remote. On failure the map is
// left as it was and the error is recorded in Err. The returned error has
// already been logged; callers may ignore it.
func (s *Store[T]) FetchAll(ctx context.Context) error {
	s.ensureHydrated(ctx)

	s.mu.Lock()
	// Only show a loading state when there is nothing cached to show.
	markLoading := len(s.entities) == 0
	if markLoading {
		s.loading++
	}
	s.err = nil
	startSeq, startGen := s.beginFetch()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if markLoading {
			s.loading--
		}
		s.endFetch()
		s.mu.Unlock()
	}()

	items, err := s.listWithRetry(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.recordFailure("fetch all", "", err)
		return err
	}

	s.mu.Lock()
	if ctx.Err() != nil || s.gen != startGen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale fetch all result")
		return ctx.Err()
	}

	next := make(map[model.ID]T, len(items))
	for _, item := range items {
		next[item.EntityID()] = item
	}
	for id, seq := range s.edits {
		if seq <= startSeq {
			delete(s.edits, id)
			continue
		}
		if local, ok := s.entities[id]; ok {
			next[id] = local
		} else {
			delete(next, id)
		}
	}
	s.entities = next
	s.mu.Unlock()

	s.logger.Debug("fetched all", "count", len(items))
	s.save(ctx)
	return nil
}

func (s *Store[T]) listWithRetry(ctx context.Context) ([]T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialDelay
	b.MaxInterval = s.retry.MaxDelay

	items, err := backoff.Retry(ctx,
		func() ([]T, error) {
			items, err := s.fetcher.List(ctx)
			if err == nil {
				return items, nil
			}
			if gateway.IsNetworkError(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.retry.Attempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.Warn("fetch all failed, retrying", "err", err, "wait", wait)
		}),
	)
	// The last attempt returns its error as is, permanent or not.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}
	return items, err
}

// FetchByID returns the cached entity, or fetches it on a miss. It reports
// false when the entity exists neither locally nor remotely, when the fetch
// failed, or when ctx ended before the answer arrived.
func (s *Store[T]) FetchByID(ctx context.Context, id model.ID) (T, bool) {
	var zero T
	if id.IsZero() {
		return zero, false
	}
	s.ensureHydrated(ctx)

	s.mu.Lock()
	if e, ok := s.entities[id]; ok {
		s.mu.Unlock()
		return e, true
	}
	c, ok := s.inflight[id]
	if !ok {
		// The request belongs to every waiter, so it must not die with the
		// first caller's context.
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call[T]{done: make(chan struct{}), cancel: cancel}
		s.inflight[id] = c
		startSeq, startGen := s.beginFetch()
		go s.runCall(fctx, id, c, startSeq, startGen)
	}
	c.waiters++
	s.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.ok
	case <-ctx.Done():
		s.mu.Lock()
		c.waiters--
		if c.waiters == 0 && !c.finished {
			// Unregister first so the next caller starts a fresh request
			// instead of joining this cancelled one.
			if s.inflight[id] == c {
				delete(s.inflight, id)
			}
			c.cancel()
		}
		s.mu.Unlock()
		return zero, false
	}
}

func (s *Store[T]) runCall(
	ctx context.Context,
	id model.ID,
	c *call[T],
	startSeq, startGen uint64,
) {
	defer c.cancel()

	item, err := s.fetcher.Get(ctx, id)

	s.mu.Lock()
	if s.inflight[id] == c {
		delete(s.inflight, id)
	}
	c.finished = true

	applied := false
	switch {
	case err != nil:
		if ctx.Err() == nil && !gateway.IsNotFound(err) {
			s.err = err
		}
	case c.waiters == 0 || s.gen != startGen:
		// Nobody is left to use it, or the store was cleared meanwhile.
	case s.edits[id] > startSeq:
		// A local edit landed while the request was out; it wins.
		c.val, c.ok = s.entities[id]
	default:
		s.entities[id] = item
		c.val, c.ok = item, true
		applied = true
	}
	s.endFetch()
	s.mu.Unlock()

	close(c.done)

	switch {
	case err == nil:
	case gateway.IsNotFound(err):
		s.logger.Info("entity not found", "id", id)
	case ctx.Err() != nil:
		s.logger.Debug("fetch abandoned by every caller", "id", id)
	default:
		s.logger.Warn("fetch by id failed", "id", id, "err", err)
	}

	if applied {
		s.save(ctx)
	}
}

// MutateLocal replaces entity id with patch applied to it, without a round
// trip. patch receives a copy but must not write through slices or pointers
// it shares with its argument; it should clone them first. The patched
// entity must keep its id. MutateLocal reports false when id is not cached.
func (s *Store[T]) MutateLocal(
	ctx context.Context,
	id model.ID,
	patch func(T) T,
) (T, bool) {
	var zero T

	s.mu.Lock()
	cur, ok := s.entities[id]
	if !ok {
		s.mu.Unlock()
		return zero, false
	}
	next := patch(cur)
	if next.EntityID() != id {
		s.mu.Unlock()
		s.logger.Error("patch changed entity id",
			"id", id, "new_id", next.EntityID())
		return zero, false
	}
	s.entities[id] = next
	s.markEdited(id)
	s.mu.Unlock()

	s.save(ctx)
	return next, true
}

// Put inserts or replaces an entity locally.
func (s *Store[T]) Put(ctx context.Context, e T) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.entities[e.EntityID()] = e
	s.markEdited(e.EntityID())
	s.mu.Unlock()

	s.save(ctx)
	return nil
}

// Remove deletes an entity locally. It reports whether it was present.
func (s *Store[T]) Remove(ctx context.Context, id model.ID) bool {
	s.mu.Lock()
	_, ok := s.entities[id]
	if ok {
		delete(s.entities, id)
		s.markEdited(id)
	}
	s.mu.Unlock()

	if ok {
		s.save(ctx)
	}
	return ok
}

// markEdited must be called with s.mu held. Edits are only tracked while a
// remote read is outstanding; a read issued later supersedes them anyway.
func (s *Store[T]) markEdited(id model.ID) {
	s.seq++
	if s.fetching > 0 {
		s.edits[id] = s.seq
	}
}

// beginFetch registers an outstanding remote read and returns the edit
// sequence and generation its result is checked against. It must be called
// with s.mu held and paired with endFetch.
func (s *Store[T]) beginFetch() (seq, gen uint64) {
	s.fetching++
	return s.seq, s.gen
}

// endFetch must be called with s.mu held. The edit log is dropped once no
// read is outstanding.
func (s *Store[T]) endFetch() {
	s.fetching--
	if s.fetching == 0 {
		clear(s.edits)
	}
}

// Clear empties the store and persists the empty state. Requests still in
// flight will not write their results.
func (s *Store[T]) Clear(ctx context.Context) {
	s.mu.Lock()
	s.entities = make(map[model.ID]T)
	s.edits = make(map[model.ID]uint64)
	s.err = nil
	s.gen++
	s.mu.Unlock()

	s.logger.Info("cleared")
	s.save(ctx)
}

// save writes the current map. Writes are serialized and each captures the
// state at the time it runs, so the last write always holds the newest map.
func (s *Store[T]) save(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	st := snapshotState[T]{Entities: maps.Clone(s.entities)}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	s.persist.Save(ctx, s.key, snapshotVersion, st)
}

func (s *Store[T]) recordFailure(op string, id model.ID, err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	if id.IsZero() {
		s.logger.Warn(op+" failed", "err", err)
		return
	}
	s.logger.Warn(op+" failed", "id", id, "err", err)
}

// Get returns the cached entity without touching the network.
func (s *Store[T]) Get(id model.ID) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	return e, ok
}

// All returns the cached entities ordered by id.
func (s *Store[T]) All() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := slices.Sorted(maps.Keys(s.entities))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entities[id])
	}
	return out
}

func compareIDs(a, b model.ID) int {
	return cmp.Compare(a, b)
}

// Snapshot returns a copy of the entity map.
func (s *Store[T]) Snapshot() map[model.ID]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.entities)
}

// Len returns the number of cached entities.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

// Loading reports whether a FetchAll that started on an empty map is running.
func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// Err returns the failure of the last fetch, or nil.
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
