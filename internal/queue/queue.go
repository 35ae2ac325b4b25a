package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

// Queue is a buffered action queue with a background broker.
type Queue struct {
	mu           sync.Mutex
	backlog      []action.Action
	notify       chan struct{}
	out          chan action.Action
	shuttingDown atomic.Bool

	enqueued  atomic.Uint64
	processed atomic.Uint64

	byTypeMu sync.Mutex
	byType   map[action.Type]uint64
}

// New creates a Queue with a buffered output channel.
func New(outBuffer int) *Queue {
	if outBuffer <= 0 {
		outBuffer = 64
	}
	return &Queue{
		notify: make(chan struct{}, 1),
		out:    make(chan action.Action, outBuffer),
		byType: make(map[action.Type]uint64),
	}
}

// Start runs the broker loop.
func (q *Queue) Start(ctx context.Context, highWatermark int) {
	go q.broker(ctx, highWatermark)
}

// broker moves backlog items to the output channel. Crossing highWatermark
// is logged once per excursion rather than on every tick.
func (q *Queue) broker(ctx context.Context, highWatermark int) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	above := false
	for {
		q.flushOnce()
		if highWatermark > 0 {
			sz := q.BacklogSize()
			switch {
			case sz > highWatermark && !above:
				above = true
				obs.Logger.Warn("queue_high_watermark", "backlog_size", sz, "high_watermark", highWatermark)
			case sz <= highWatermark && above:
				above = false
				obs.Logger.Info("queue_below_watermark", "backlog_size", sz, "high_watermark", highWatermark)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// flushOnce drains backlog into the output buffer.
func (q *Queue) flushOnce() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.backlog) > 0 && len(q.out) < cap(q.out) {
		item := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.out <- item
	}
}

// Enqueue appends an action into the backlog and notifies the broker. It
// refuses new work once intake is closed.
func (q *Queue) Enqueue(a action.Action) bool {
	if q.shuttingDown.Load() {
		return false
	}
	q.Push(a)
	return true
}

// Push appends a regardless of intake state. Follow-ups of work that was
// already accepted go through Push so a drain can finish them.
func (q *Queue) Push(a action.Action) {
	q.enqueued.Add(1)
	q.mu.Lock()
	q.backlog = append(q.backlog, a)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Out exposes the output channel of actions.
func (q *Queue) Out() <-chan action.Action { return q.out }

// BacklogSize returns the number of enqueued-but-not-yet-output actions.
func (q *Queue) BacklogSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// QueueDepth returns backlog plus buffered output items.
func (q *Queue) QueueDepth() int {
	q.mu.Lock()
	bl := len(q.backlog)
	q.mu.Unlock()
	return bl + len(q.out)
}

// MarkProcessed increases the processed counters for a.
func (q *Queue) MarkProcessed(a action.Action) {
	q.byTypeMu.Lock()
	q.byType[a.Type()]++
	q.byTypeMu.Unlock()
	q.processed.Add(1)
}

// ProcessedByType returns a copy of the per-type processed counters.
func (q *Queue) ProcessedByType() map[action.Type]uint64 {
	q.byTypeMu.Lock()
	defer q.byTypeMu.Unlock()
	out := make(map[action.Type]uint64, len(q.byType))
	for k, v := range q.byType {
		out[k] = v
	}
	return out
}

// Metrics returns counters and sizes for observability.
func (q *Queue) Metrics() (enq, proc uint64, backlog, depth int) {
	enq = q.enqueued.Load()
	proc = q.processed.Load()
	backlog = q.BacklogSize()
	depth = q.QueueDepth()
	return enq, proc, backlog, depth
}

// CloseIntake disallows future enqueues.
func (q *Queue) CloseIntake() { q.shuttingDown.Store(true) }

// IsShuttingDown reports if intake has been closed.
func (q *Queue) IsShuttingDown() bool { return q.shuttingDown.Load() }
