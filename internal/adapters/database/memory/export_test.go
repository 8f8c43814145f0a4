package memory

// LockEntries reports how many per-key locks the store is tracking.
func (s *Store) LockEntries() int {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	return len(s.locks)
}
