package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/labfoundry/custodian/id"
)

// Recorder is the best-effort asynchronous writer in front of a Store.
// Record never blocks the caller's critical path: entries go through a
// buffered channel drained by a single worker, so writes land in submission
// order. A failed or dropped write is logged, never surfaced to the
// authorization decision.
type Recorder struct {
	store        Store
	logger       *slog.Logger
	buf          chan *Entry
	done         chan struct{}
	writeTimeout time.Duration
	closeOnce    sync.Once

	mu     sync.RWMutex
	closed bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithBuffer sets the channel buffer size. When the buffer is full new
// entries are dropped (and the drop logged) rather than blocking.
func WithBuffer(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.buf = make(chan *Entry, n)
		}
	}
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// NewRecorder creates a Recorder and starts its worker.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		logger:       slog.Default(),
		buf:          make(chan *Entry, 256),
		done:         make(chan struct{}),
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Record enqueues an entry for writing. Missing ID and CreatedAt are filled
// in. The request context is deliberately not carried into the write: a
// cancelled request must not lose its audit record.
func (r *Recorder) Record(_ context.Context, e *Entry) {
	if e.ID.IsNil() {
		e.ID = id.NewAuditID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("audit recorder closed, entry dropped", "action", e.Action, "user_id", e.UserID)
		return
	}
	select {
	case r.buf <- e:
	default:
		r.logger.Warn("audit buffer full, entry dropped", "action", e.Action, "user_id", e.UserID)
	}
}

// Close stops accepting entries, drains the buffer, and waits for the
// worker to finish.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.buf)
		<-r.done
	})
	return nil
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.buf {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.store.CreateAuditEntry(ctx, e); err != nil {
			r.logger.Error("audit write failed",
				"error", err,
				"action", e.Action,
				"user_id", e.UserID,
				"lab_id", e.LabID,
			)
		}
		cancel()
	}
}
