// Package configurator runs the configurator effects: it reduces dispatched
// actions into the store, fans out on settle, and turns effectful actions
// into connector calls on the queue workers.
package configurator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/queue"
	"github.com/fairyhunter13/product-configurator-simulator/internal/store"
)

// ErrShuttingDown is returned by Dispatch once intake is closed.
var ErrShuttingDown = errors.New("configurator: shutting down")

// Listener observes every action after it has been reduced.
type Listener func(a action.Action)

// Service owns the dispatch path. Reduction happens on the caller's
// goroutine; connector work happens in Handle.
type Service struct {
	st   *store.Store
	conn connector.Connector
	q    *queue.Queue
	seq  queue.Sequencer

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int

	gated atomic.Int64
	// settleMu is held across an update answer and its settle fan-out.
	settleMu sync.RWMutex
}

// New wires a Service. q is the queue a queue.Manager drains into Handle.
func New(st *store.Store, conn connector.Connector, q *queue.Queue) *Service {
	return &Service{
		st:        st,
		conn:      conn,
		q:         q,
		listeners: make(map[int]Listener),
	}
}

// Store exposes the state container for queries.
func (s *Service) Store() *store.Store { return s.st }

// Dispatch accepts an action from the outside. The returned sequence orders
// dispatches; an UpdateConfiguration carries it to order its response.
func (s *Service) Dispatch(a action.Action) (uint64, error) {
	if s.q.IsShuttingDown() {
		return 0, ErrShuttingDown
	}
	seq := s.seq.Next()
	if u, ok := a.(action.UpdateConfiguration); ok {
		u.Sequence = seq
		a = u
	}
	s.emit(a)
	return seq, nil
}

// Subscribe registers l for every reduced action until the returned func
// is called.
func (s *Service) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// emit reduces a, notifies listeners, runs the settle fan-out and queues
// the effect of a, in that order.
func (s *Service) emit(a action.Action) {
	switch a.(type) {
	case action.UpdateConfigurationSuccess, action.UpdateConfigurationFail:
		s.settleMu.Lock()
		defer s.settleMu.Unlock()
	}
	t := s.st.Apply(a)
	obs.Logger.Debug("action_reduced",
		"action", string(a.Type()),
		"owner_key", a.OwnerKey(),
		"phase", t.To.String(),
		"outstanding", t.Outstanding,
	)

	s.mu.RLock()
	for _, l := range s.listeners {
		l(a)
	}
	s.mu.RUnlock()

	if t.Settled() {
		s.settle(t)
	}
	// Intake is gated in Dispatch only; anything reduced here was already
	// accepted and its effect must still run during a drain.
	if hasEffect(a) {
		s.q.Push(a)
	}
}

func hasEffect(a action.Action) bool {
	switch a.(type) {
	case action.CreateConfiguration,
		action.ReadConfiguration,
		action.UpdateConfiguration,
		action.UpdateConfigurationFinalizeFail,
		action.UpdatePriceSummary,
		action.GetConfigurationOverview,
		action.ReadCartEntryConfiguration,
		action.ChangeGroup,
		action.AddToCart,
		action.UpdateCartEntry,
		action.AddNextOwner:
		return true
	}
	return false
}

// Handle runs the effect of a. It implements queue.Handler.
func (s *Service) Handle(ctx context.Context, a action.Action) {
	switch a := a.(type) {
	case action.CreateConfiguration:
		s.createConfiguration(ctx, a)
	case action.ReadConfiguration:
		s.readConfiguration(ctx, a)
	case action.UpdateConfiguration:
		s.updateConfiguration(ctx, a)
	case action.UpdateConfigurationFinalizeFail:
		s.resync(a)
	case action.UpdatePriceSummary:
		s.updatePriceSummary(ctx, a)
	case action.GetConfigurationOverview:
		s.getOverview(ctx, a)
	case action.ReadCartEntryConfiguration:
		s.readCartEntry(ctx, a)
	case action.AddNextOwner:
		s.addNextOwner(a)
	case action.ChangeGroup:
		s.whenIdle(ctx, a.OwnerKey(), func(ctx context.Context) { s.changeGroup(ctx, a) })
	case action.AddToCart:
		s.whenIdle(ctx, a.OwnerKey(), func(ctx context.Context) { s.addToCart(ctx, a) })
	case action.UpdateCartEntry:
		s.whenIdle(ctx, a.OwnerKey(), func(ctx context.Context) { s.updateCartEntry(ctx, a) })
	default:
		obs.Logger.Warn("effect_missing", "action", string(a.Type()))
	}
}

// whenIdle runs fn once ownerKey next has zero pending updates. The wait
// happens off the worker so one busy owner never stalls the pool.
func (s *Service) whenIdle(ctx context.Context, ownerKey string, fn func(ctx context.Context)) {
	s.gated.Add(1)
	go func() {
		defer s.gated.Add(-1)
		if err := s.st.AwaitIdle(ctx, ownerKey); err != nil {
			obs.Logger.Warn("idle_wait_abandoned", "owner_key", ownerKey, "error", err.Error())
			return
		}
		// The settle that woke us finishes its fan-out first.
		s.settleMu.RLock()
		s.settleMu.RUnlock()
		fn(ctx)
	}()
}

// Gated returns how many effects run off the workers: those parked on an
// owner's next idle and overview label lookups.
func (s *Service) Gated() int { return int(s.gated.Load()) }

// LastSequence is the sequence handed to the most recent Dispatch.
func (s *Service) LastSequence() uint64 { return s.seq.Last() }

// Drain blocks until the queue is empty, no effect is running and nothing
// is gated, or ctx is done. Gated effects enqueue follow-ups when they
// finish, so both sides are checked together.
func (s *Service) Drain(ctx context.Context) bool {
	for {
		enq, proc, backlog, depth := s.q.Metrics()
		gated := s.gated.Load()
		enqAfter, _, _, _ := s.q.Metrics()
		if enq == proc && backlog == 0 && depth == 0 && gated == 0 && enqAfter == enq {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
