// Package queue implements the in-memory action queue and the autoscaled
// worker pool that runs effects.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/config"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

// Handler runs the effect of one action. It may block on remote I/O.
type Handler interface {
	Handle(ctx context.Context, a action.Action)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, a action.Action)

func (f HandlerFunc) Handle(ctx context.Context, a action.Action) { f(ctx, a) }

// Manager coordinates workers processing queued actions and scaling.
type Manager struct {
	cfg    config.Config
	q      *Queue
	h      Handler
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	workerCancels []context.CancelFunc
}

// NewManager constructs a Manager that feeds actions from q to h.
func NewManager(cfg config.Config, q *Queue, h Handler) *Manager {
	return &Manager{cfg: cfg, q: q, h: h}
}

// Start begins processing and autoscaling in the background.
func (m *Manager) Start(parent context.Context) {
	m.ctx, m.cancel = context.WithCancel(parent)
	m.q.Start(m.ctx, m.cfg.QueueHighWatermark)
	m.addWorkers(max(m.cfg.InitialWorkerCount, 1))
	go m.scaler()
}

// Stop cancels background routines and stops workers.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	for _, c := range m.workerCancels {
		c()
	}
	m.workerCancels = nil
	m.mu.Unlock()
}

// scaler adjusts worker count based on backlog and configuration.
func (m *Manager) scaler() {
	if m.cfg.ScaleInterval <= 0 {
		return
	}
	t := time.NewTicker(m.cfg.ScaleInterval)
	defer t.Stop()
	idleTicks := 0
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-t.C:
			backlog := m.q.BacklogSize()
			wc := m.WorkerCount()
			if backlog > wc*m.cfg.ScaleUpBacklogPerWorker && wc < m.cfg.WorkerMax {
				m.addWorkers(1)
				idleTicks = 0
				continue
			}
			if backlog == 0 {
				idleTicks++
				if idleTicks >= m.cfg.ScaleDownIdleTicks && wc > m.cfg.WorkerMin {
					m.removeWorkers(1)
					idleTicks = 0
				}
			} else {
				idleTicks = 0
			}
		}
	}
}

// addWorkers spawns n workers.
func (m *Manager) addWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		wctx, cancel := context.WithCancel(m.ctx)
		m.workerCancels = append(m.workerCancels, cancel)
		go m.worker(wctx)
	}
	obs.Logger.Info("workers scaled", "worker_count", len(m.workerCancels))
}

// removeWorkers stops up to n workers.
func (m *Manager) removeWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.workerCancels) {
		n = len(m.workerCancels)
	}
	for i := 0; i < n; i++ {
		c := m.workerCancels[len(m.workerCancels)-1]
		m.workerCancels = m.workerCancels[:len(m.workerCancels)-1]
		c()
	}
	obs.Logger.Info("workers scaled", "worker_count", len(m.workerCancels))
}

// worker drains actions from the queue and runs their effects. Effects get
// the manager context: scaling a worker down never aborts a remote call.
func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-m.q.Out():
			m.run(m.ctx, a)
			m.q.MarkProcessed(a)
		}
	}
}

// run shields the worker from a panicking effect.
func (m *Manager) run(ctx context.Context, a action.Action) {
	defer func() {
		if r := recover(); r != nil {
			obs.Logger.Error("effect_panic",
				"action", string(a.Type()),
				"owner_key", a.OwnerKey(),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	m.h.Handle(ctx, a)
}

// Enqueue proxies to the underlying queue.
func (m *Manager) Enqueue(a action.Action) bool { return m.q.Enqueue(a) }

// BacklogSize returns pending items in the queue.
func (m *Manager) BacklogSize() int { return m.q.BacklogSize() }

// QueueDepth returns backlog plus buffered output items.
func (m *Manager) QueueDepth() int { return m.q.QueueDepth() }

// WorkerCount returns the current number of workers.
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workerCancels)
}

// IsShuttingDown reports whether new enqueues are rejected.
func (m *Manager) IsShuttingDown() bool { return m.q.IsShuttingDown() }

// CloseIntake disallows future enqueues.
func (m *Manager) CloseIntake() { m.q.CloseIntake() }

// QueueMetrics exposes the underlying queue metrics.
func (m *Manager) QueueMetrics() (enq, proc uint64, backlog, depth int) {
	return m.q.Metrics()
}

// ProcessedByType returns how many actions of each type have run.
func (m *Manager) ProcessedByType() map[action.Type]uint64 { return m.q.ProcessedByType() }

// DrainUntil blocks until the queue is fully drained or context is done.
func (m *Manager) DrainUntil(ctx context.Context) bool {
	for {
		enq, proc, backlog, depth := m.q.Metrics()
		if backlog == 0 && depth == 0 && enq == proc {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
