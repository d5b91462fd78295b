// Package memory keeps label mappings in process memory for runs without a database.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type mapping struct {
	pattern   string
	serviceID uuid.UUID
}

type Store struct {
	mu       sync.RWMutex
	mappings []mapping
}

func New() *Store {
	return &Store{}
}

func (s *Store) FindMatch(_ context.Context, label string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	label = strings.ToLower(label)

	var best *mapping

	// Later mappings win ties, like the newest row in the database store.
	for i := range s.mappings {
		m := &s.mappings[i]
		if !strings.Contains(label, strings.ToLower(m.pattern)) {
			continue
		}

		if best == nil || len(m.pattern) >= len(best.pattern) {
			best = m
		}
	}

	if best == nil {
		return uuid.Nil, nil
	}

	return best.serviceID, nil
}

func (s *Store) CreateMapping(_ context.Context, pattern string, serviceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings = append(s.mappings, mapping{pattern: pattern, serviceID: serviceID})

	return nil
}
