// Package store holds configurator state: one entry per owner key plus the
// cart processing counters. Apply is the only way to change it.
package store

import (
	"context"
	"sync"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/model"
)

// Phase is the update state of one owner.
type Phase int

const (
	// Idle means no update is outstanding.
	Idle Phase = iota
	// Updating means at least one update request has not answered yet.
	Updating
	// Settling is the instant the last outstanding update answers. It is
	// reported by Apply but never stored: the owner is Idle right after.
	Settling
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Updating:
		return "updating"
	case Settling:
		return "settling"
	}
	return "unknown"
}

type ownerState struct {
	cfg             *model.Configuration
	overview        *model.Overview
	phase           Phase
	outstanding     int
	lastSequence    uint64
	best            *model.Configuration
	currentGroup    string
	menuParentGroup string
	nextOwner       string
	lastErr         *model.ErrorRecord
	waiters         []chan struct{}
}

// Transition describes what Apply did to the update state of an owner.
type Transition struct {
	OwnerKey    string
	From        Phase
	To          Phase
	Outstanding int
	// Succeeded tells how the update that settled the owner ended.
	Succeeded bool
	// Final is the configuration the settle finalized with: the successful
	// answer with the highest submission sequence of the batch, or the
	// failed request payload.
	Final model.Configuration
	Error model.ErrorRecord
}

// Settled reports whether the transition brought the owner to zero
// outstanding updates.
func (t Transition) Settled() bool { return t.To == Settling }

// Store is a single-writer, multi-reader state container.
type Store struct {
	mu     sync.RWMutex
	owners map[string]*ownerState
	carts  map[string]int
}

func New() *Store {
	return &Store{
		owners: make(map[string]*ownerState),
		carts:  make(map[string]int),
	}
}

func (s *Store) owner(key string) *ownerState {
	st, ok := s.owners[key]
	if !ok {
		st = &ownerState{}
		s.owners[key] = st
	}
	return st
}

// Apply reduces a into the state. Calls are serialized, so readers never see
// a half-applied action.
func (s *Store) Apply(a action.Action) Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.OwnerKey()
	st := s.owner(key)
	t := Transition{OwnerKey: key, From: st.phase, To: st.phase}

	switch a := a.(type) {
	case action.CreateConfigurationSuccess:
		st.setConfiguration(a.Configuration)
	case action.ReadConfigurationSuccess:
		st.setConfiguration(a.Configuration)
	case action.ReadCartEntryConfigurationSuccess:
		st.setConfiguration(a.Configuration)
	case action.UpdateConfigurationFinalizeSuccess:
		st.setConfiguration(a.Configuration)

	case action.CreateConfigurationFail:
		st.fail(a.Error)
	case action.ReadConfigurationFail:
		st.fail(a.Error)
	case action.ReadCartEntryConfigurationFail:
		st.fail(a.Error)
	case action.UpdatePriceSummaryFail:
		st.fail(a.Error)
	case action.GetConfigurationOverviewFail:
		st.fail(a.Error)

	case action.UpdateConfiguration:
		if st.outstanding == 0 {
			st.best = nil
			st.lastSequence = 0
		}
		st.outstanding++
		st.phase = Updating
	case action.UpdateConfigurationSuccess:
		if st.best == nil || a.Sequence >= st.lastSequence {
			c := a.Configuration.Clone()
			st.best = &c
			st.lastSequence = a.Sequence
		}
		t = st.resolve(t, true, a.Configuration, model.ErrorRecord{})
	case action.UpdateConfigurationFail:
		st.fail(a.Error)
		t = st.resolve(t, false, a.Configuration, a.Error)

	case action.UpdatePriceSummarySuccess:
		if st.cfg != nil && st.cfg.ConfigID == a.Configuration.ConfigID && a.Configuration.PriceSummary != nil {
			c := a.Configuration.Clone()
			st.cfg.PriceSummary = c.PriceSummary
		}
	case action.GetConfigurationOverviewSuccess:
		ov := a.Overview.Clone()
		st.overview = &ov
	case action.GetConfigurationOverviewLabels:
		if st.overview != nil && st.overview.ConfigID == a.ConfigID {
			for i, g := range st.overview.Groups {
				if d, ok := a.Descriptions[g.ID]; ok {
					st.overview.Groups[i].GroupDescription = d
				}
			}
		}

	case action.SetCurrentGroup:
		st.currentGroup = a.GroupID
	case action.SetMenuParentGroup:
		st.menuParentGroup = a.GroupID

	case action.CartProcessesIncrement:
		s.carts[a.CartID]++
	case action.CartAddEntrySuccess:
		s.cartDone(a.Result.CartID)
	case action.CartAddEntryFail:
		s.cartDone(a.CartID)
		st.fail(a.Error)
	case action.CartUpdateEntrySuccess:
		s.cartDone(a.Result.CartID)
	case action.CartUpdateEntryFail:
		s.cartDone(a.CartID)
		st.fail(a.Error)

	case action.AddNextOwner:
		st.nextOwner = a.CartEntryNo
	case action.SetNextOwnerCartEntry:
		owner := model.NewOwner(model.OwnerCartEntry, a.CartEntryNo)
		c := a.Configuration.Clone()
		c.Owner = owner
		next := s.owner(owner.Key)
		next.cfg = &c
		next.lastErr = nil
	}
	return t
}

// resolve accounts for one answered update. A stray answer on an idle owner
// is ignored so the counter never goes negative.
func (st *ownerState) resolve(t Transition, ok bool, payload model.Configuration, e model.ErrorRecord) Transition {
	if st.outstanding == 0 {
		return t
	}
	st.outstanding--
	t.Outstanding = st.outstanding
	if st.outstanding > 0 {
		return t
	}
	t.To = Settling
	t.Succeeded = ok
	if ok {
		t.Final = st.best.Clone()
		st.setConfiguration(t.Final)
	} else {
		t.Final = payload.Clone()
		t.Error = e
	}
	st.phase = Idle
	st.best = nil
	st.lastSequence = 0
	for _, w := range st.waiters {
		close(w)
	}
	st.waiters = nil
	return t
}

func (st *ownerState) setConfiguration(c model.Configuration) {
	cp := c.Clone()
	if cp.PriceSummary == nil && st.cfg != nil && st.cfg.ConfigID == cp.ConfigID {
		cp.PriceSummary = st.cfg.PriceSummary
	}
	st.cfg = &cp
	st.lastErr = nil
}

func (st *ownerState) fail(e model.ErrorRecord) {
	st.lastErr = &e
}

func (s *Store) cartDone(cartID string) {
	if s.carts[cartID] > 0 {
		s.carts[cartID]--
	}
}

// AwaitIdle blocks until ownerKey has no outstanding updates. It returns at
// once when the owner is already idle, otherwise on the next settle. The
// waiter is dropped when ctx ends.
func (s *Store) AwaitIdle(ctx context.Context, ownerKey string) error {
	s.mu.Lock()
	st := s.owner(ownerKey)
	if st.outstanding == 0 {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	st.waiters = append(st.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		s.dropWaiter(ownerKey, ch)
		return ctx.Err()
	}
}

func (s *Store) dropWaiter(ownerKey string, ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.owners[ownerKey]
	if !ok {
		return
	}
	for i, w := range st.waiters {
		if w == ch {
			st.waiters = append(st.waiters[:i], st.waiters[i+1:]...)
			return
		}
	}
}

// Waiters returns how many AwaitIdle calls are parked on ownerKey.
func (s *Store) Waiters(ownerKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.owners[ownerKey]; ok {
		return len(st.waiters)
	}
	return 0
}
