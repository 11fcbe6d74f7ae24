package cache

import "sync"

type syncSet struct {
	mu   *sync.Mutex
	keys map[string]struct{}
}

func newSyncSet() syncSet {
	return syncSet{mu: &sync.Mutex{}, keys: map[string]struct{}{}}
}

// add returns false when key is already present.
func (s syncSet) add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s syncSet) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}
