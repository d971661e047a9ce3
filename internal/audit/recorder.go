package audit

import (
	"context"
	"sync"

	"github.com/campusvoice/portal/internal/infrastructure/logging"
)

// recorderBufferSize is the buffer of the async write channel.
// Entries beyond this are dropped to avoid back-pressure on requests.
const recorderBufferSize = 256

// Recorder queues audit entries and writes them serially in the background.
//
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	repo   Repository
	logger *logging.Logger
	ch     chan *AuditLog

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewRecorder creates a recorder writing to repo. Call Start before Record.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		repo:   repo,
		logger: logger.With("component", "audit"),
		ch:     make(chan *AuditLog, recorderBufferSize),
		done:   make(chan struct{}),
	}
}

// Start launches the writer goroutine. It runs until ctx is cancelled or
// Stop is called, then drains queued entries.
func (r *Recorder) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go func() {
		defer close(r.done)
		r.drain(ctx)
	}()
}

// Stop signals the writer and waits for queued entries to be written.
func (r *Recorder) Stop() {
	if r == nil || r.cancel == nil {
		return
	}
	r.once.Do(func() {
		r.cancel()
		<-r.done
	})
}

// Record enqueues an entry from the web source (best-effort).
func (r *Recorder) Record(action, entityType, entityID, userID string, details map[string]any) {
	if r == nil {
		return
	}

	entry := &AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Source:     SourceWeb,
		Details:    details,
	}

	select {
	case r.ch <- entry:
	default:
		r.logger.Warn("audit channel full, dropping entry",
			"action", action,
			"entity_type", entityType,
		)
	}
}

// drain writes entries until ctx is cancelled, then flushes what is queued.
func (r *Recorder) drain(ctx context.Context) {
	for {
		select {
		case entry := <-r.ch:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.ch:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *AuditLog) {
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit log write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}
