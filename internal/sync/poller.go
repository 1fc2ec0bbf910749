// Package sync refreshes entity stores in the background.
package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailbox-sync/internal/gateway"
)

// SyncState represents the current state of a store refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "unknown"
	}
}

// Refreshable is a store that can reload itself from the remote.
type Refreshable interface {
	FetchAll(ctx context.Context) error
	Len() int
}

// SyncStatus holds the refresh state of one registered store.
type SyncStatus struct {
	Name     string
	State    SyncState
	LastSync time.Time
	Count    int
	Error    error
}

// Result is published after every refresh.
type Result struct {
	Name        string
	Count       int
	Error       error
	AuthExpired bool
}

// fetchTimeout is the maximum time allowed for a single refresh.
const fetchTimeout = 30 * time.Second

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 120 * time.Second

type entry struct {
	name    string
	target  Refreshable
	trigger chan struct{}
}

// Poller refreshes registered stores on an interval and on demand.
type Poller struct {
	interval time.Duration
	logger   *slog.Logger

	mu       gosync.Mutex
	entries  []*entry
	statuses map[string]*SyncStatus
	resultCh chan Result
	stopCh   chan struct{}
	wg       gosync.WaitGroup
	running  bool
}

// New creates a Poller. A nil logger uses slog.Default().
func New(interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		interval: interval,
		logger:   logger,
		statuses: make(map[string]*SyncStatus),
		resultCh: make(chan Result, 16),
	}
}

// Register adds a store under name. Stores registered after Start are only
// refreshed by RunOnce.
func (p *Poller) Register(name string, target Refreshable) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, &entry{
		name:    name,
		target:  target,
		trigger: make(chan struct{}, 1),
	})
	p.statuses[name] = &SyncStatus{Name: name, State: SyncIdle}
}

// Start launches one polling goroutine per registered store. Each one
// refreshes immediately and then on every tick until ctx ends or Stop is
// called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})

	for _, e := range p.entries {
		p.wg.Add(1)
		go p.poll(ctx, e, p.stopCh)
	}
}

// Stop halts the polling goroutines and waits for them to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// RefreshAll asks every polling goroutine to refresh now.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		trigger(e)
	}
}

// RefreshSource asks the goroutine of one store to refresh now. It reports
// false for unknown names.
func (p *Poller) RefreshSource(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.name == name {
			trigger(e)
			return true
		}
	}
	return false
}

func trigger(e *entry) {
	select {
	case e.trigger <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

// RunOnce refreshes every registered store concurrently and waits for all
// of them. Results are returned in registration order.
func (p *Poller) RunOnce(ctx context.Context) []Result {
	p.mu.Lock()
	entries := append([]*entry(nil), p.entries...)
	p.mu.Unlock()

	results := make([]Result, len(entries))
	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			results[i] = p.refresh(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Statuses returns the refresh state of every store in registration order.
func (p *Poller) Statuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.entries))
	for _, e := range p.entries {
		statuses = append(statuses, *p.statuses[e.name])
	}
	return statuses
}

// Results delivers refresh outcomes. Results are dropped when nobody reads
// them fast enough.
func (p *Poller) Results() <-chan Result {
	return p.resultCh
}

func (p *Poller) poll(ctx context.Context, e *entry, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.publish(p.refresh(ctx, e))

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.publish(p.refresh(ctx, e))
		case <-e.trigger:
			p.publish(p.refresh(ctx, e))
		}
	}
}

func (p *Poller) refresh(ctx context.Context, e *entry) Result {
	p.setStatus(e.name, SyncRunning, nil, 0)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	err := e.target.FetchAll(ctx)
	count := e.target.Len()
	if err != nil {
		p.setStatus(e.name, SyncError, err, count)
		res := Result{
			Name:        e.name,
			Count:       count,
			Error:       err,
			AuthExpired: gateway.IsAuthError(err),
		}
		if res.AuthExpired {
			p.logger.Warn("refresh rejected, session expired", "store", e.name)
		}
		return res
	}

	p.setStatus(e.name, SyncIdle, nil, count)
	p.logger.Debug("refreshed", "store", e.name, "count", count)
	return Result{Name: e.name, Count: count}
}

func (p *Poller) setStatus(name string, state SyncState, err error, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncRunning {
		return
	}
	status.Count = count
	if state == SyncIdle {
		status.LastSync = time.Now()
	}
}

func (p *Poller) publish(res Result) {
	select {
	case p.resultCh <- res:
	default:
		// Drop if nobody is listening.
	}
}
