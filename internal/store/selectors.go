package store

import "github.com/fairyhunter13/product-configurator-simulator/internal/model"

// HasPendingChanges reports whether ownerKey has update requests in flight.
// It counts every outstanding request, not only the latest one.
func (s *Store) HasPendingChanges(ownerKey string) bool {
	return s.Outstanding(ownerKey) > 0
}

// Outstanding returns the number of unanswered update requests of ownerKey.
func (s *Store) Outstanding(ownerKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.owners[ownerKey]; ok {
		return st.outstanding
	}
	return 0
}

// Phase returns the update phase of ownerKey.
func (s *Store) Phase(ownerKey string) Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.owners[ownerKey]; ok {
		return st.phase
	}
	return Idle
}

// Configuration returns a copy of the current configuration of ownerKey.
func (s *Store) Configuration(ownerKey string) (model.Configuration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.owners[ownerKey]
	if !ok || st.cfg == nil {
		return model.Configuration{}, false
	}
	return st.cfg.Clone(), true
}

// Overview returns a copy of the last overview loaded for ownerKey.
func (s *Store) Overview(ownerKey string) (model.Overview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.owners[ownerKey]
	if !ok || st.overview == nil {
		return model.Overview{}, false
	}
	return st.overview.Clone(), true
}

func (s *Store) CurrentGroup(ownerKey string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.owners[ownerKey]; ok {
		return st.currentGroup
	}
	return ""
}

func (s *Store) MenuParentGroup(ownerKey string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.owners[ownerKey]; ok {
		return st.menuParentGroup
	}
	return ""
}

// NextOwner returns the cart entry number a product owner was added as.
func (s *Store) NextOwner(ownerKey string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.owners[ownerKey]
	if !ok || st.nextOwner == "" {
		return "", false
	}
	return st.nextOwner, true
}

// LastError returns the most recent failure recorded for ownerKey. Any
// successful load clears it.
func (s *Store) LastError(ownerKey string) (model.ErrorRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.owners[ownerKey]
	if !ok || st.lastErr == nil {
		return model.ErrorRecord{}, false
	}
	return *st.lastErr, true
}

// CartProcesses returns how many cart operations on cartID are running.
func (s *Store) CartProcesses(cartID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carts[cartID]
}

// Owners returns the number of owner keys the store knows.
func (s *Store) Owners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owners)
}
