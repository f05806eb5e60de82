// Package presence mirrors a client session's liveness into the account's
// presence record.
//
// Every trigger produces exactly one independent write. Writes are neither
// ordered, coalesced nor cancelled, so two racing writes resolve by whichever
// reaches the store last.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/observability"
)

const DefaultWriteTimeout = 5 * time.Second

// Writer persists a status. The store assigns the last-seen timestamp.
type Writer interface {
	SetStatus(ctx context.Context, accountID uuid.UUID, status models.PresenceStatus) error
}

type Options struct {
	WriteTimeout time.Duration
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Tracker binds one client session to an identity. It does nothing until
// an identity is set.
type Tracker struct {
	store   Writer
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	identity *uuid.UUID
	closed   bool
	inflight sync.WaitGroup
}

func NewTracker(store Writer, opts Options) *Tracker {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics(nil)
	}
	return &Tracker{
		store:   store,
		timeout: opts.WriteTimeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// SetIdentity activates, deactivates or re-targets the tracker. Activation
// writes online; deactivation writes a final offline for the old identity.
// Setting the current identity again is a no-op.
func (t *Tracker) SetIdentity(id *uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || sameIdentity(t.identity, id) {
		return
	}

	if t.identity != nil {
		t.write(*t.identity, models.StatusOffline, "deactivate")
		t.identity = nil
		t.metrics.ActiveTrackers.Dec()
	}
	if id != nil {
		next := *id
		t.identity = &next
		t.metrics.ActiveTrackers.Inc()
		t.write(next, models.StatusOnline, "activate")
	}
}

// Handle issues one write for sig. Signals arriving while no identity is
// bound are dropped.
func (t *Tracker) Handle(sig Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.identity == nil {
		return
	}
	t.write(*t.identity, sig.Status(), sig.String())
}

// Close disposes the tracker: later signals are ignored and, if an identity
// was bound, a final offline write is issued. It does not wait for that
// write; call Wait for that.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	if t.identity != nil {
		t.write(*t.identity, models.StatusOffline, "teardown")
		t.identity = nil
		t.metrics.ActiveTrackers.Dec()
	}
}

// Run feeds signals into the tracker until the channel closes or ctx is
// done, then closes the tracker.
func (t *Tracker) Run(ctx context.Context, signals <-chan Signal) {
	defer t.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			t.Handle(sig)
		}
	}
}

func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed && t.identity != nil
}

// Wait blocks until every write issued so far has finished.
func (t *Tracker) Wait() {
	t.inflight.Wait()
}

// write must be called with t.mu held. The write runs detached from any
// caller context so teardown writes outlive the session that issued them.
func (t *Tracker) write(id uuid.UUID, status models.PresenceStatus, trigger string) {
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := t.store.SetStatus(ctx, id, status); err != nil {
			t.metrics.PresenceWrites.WithLabelValues(string(status), "error").Inc()
			t.logger.Error("failed to update presence",
				"account_id", id,
				"status", status,
				"trigger", trigger,
				"error", err,
			)
			return
		}
		t.metrics.PresenceWrites.WithLabelValues(string(status), "success").Inc()
		t.logger.Debug("presence updated", "account_id", id, "status", status, "trigger", trigger)
	}()
}

// Beacon applies a single signal for id without a tracker. It backs the
// plain HTTP endpoint clients use when they cannot hold a socket open, such
// as during page unload.
func Beacon(ctx context.Context, store Writer, id uuid.UUID, sig Signal) error {
	return store.SetStatus(ctx, id, sig.Status())
}

func sameIdentity(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
