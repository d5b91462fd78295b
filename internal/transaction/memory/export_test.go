package memory

// HeldLocks reports how many keys currently have a lock entry.
func (s *Store) HeldLocks() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	return len(s.locks)
}
