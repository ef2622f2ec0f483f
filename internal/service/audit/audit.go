// Package audit records who did what, off the request path. Record never
// blocks and never fails: entries that do not fit in the queue are dropped
// with a warning, and store errors are only logged.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartmes/internal/clock"
	"smartmes/internal/storage"
)

const (
	ModuleWorkOrder = "WORK_ORDER"
	ModuleDowntime  = "DOWNTIME"
	ModuleEquipment = "EQUIPMENT"
	ModuleProduct   = "PRODUCT"
)

type Store interface {
	SaveAudit(ctx context.Context, e storage.AuditEntry) error
}

type Entry struct {
	Operation string
	Module    string
	EntityID  string
	Details   string
}

type Actor struct {
	UserID    string
	Username  string
	IPAddress string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

type Options struct {
	QueueSize    int
	WriteTimeout time.Duration
}

type Recorder struct {
	log          *slog.Logger
	store        Store
	clock        clock.Clock
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan storage.AuditEntry
	done   chan struct{}
}

func NewRecorder(log *slog.Logger, store Store, clk clock.Clock, opts Options) *Recorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}

	r := &Recorder{
		log:          log.With(slog.String("component", "audit")),
		store:        store,
		clock:        clk,
		writeTimeout: opts.WriteTimeout,
		queue:        make(chan storage.AuditEntry, opts.QueueSize),
		done:         make(chan struct{}),
	}

	go r.consume()

	return r
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	actor := ActorFrom(ctx)
	entry := storage.AuditEntry{
		ID:        uuid.NewString(),
		UserID:    actor.UserID,
		Username:  actor.Username,
		Operation: e.Operation,
		Module:    e.Module,
		EntityID:  e.EntityID,
		Details:   e.Details,
		IPAddress: actor.IPAddress,
		CreatedAt: r.clock.Now(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.log.Warn("audit recorder closed, entry dropped", slog.String("operation", e.Operation), slog.String("entity_id", e.EntityID))
		return
	}

	select {
	case r.queue <- entry:
	default:
		r.log.Warn("audit queue full, entry dropped", slog.String("operation", e.Operation), slog.String("entity_id", e.EntityID))
	}
}

func (r *Recorder) consume() {
	defer close(r.done)

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		err := r.store.SaveAudit(ctx, entry)
		cancel()

		if err != nil {
			r.log.Error("failed to write audit entry",
				slog.String("operation", entry.Operation),
				slog.String("module", entry.Module),
				slog.String("entity_id", entry.EntityID),
				slog.String("error", err.Error()),
			)
			continue
		}

		r.log.Debug("audit entry written", slog.String("operation", entry.Operation), slog.String("entity_id", entry.EntityID))
	}
}

// Close stops intake and waits for queued entries to be written or ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
