package pipeline

import (
	"sync"

	"github.com/ghalamif/SensorStat/internal/domain"
)

// StateHolder owns the classification of the most recent pass, scheduled or
// interactive. Published classifications are never modified afterwards, so
// readers can keep the pointer they got for as long as they need it.
type StateHolder struct {
	mu     sync.RWMutex
	latest *domain.Classification
}

func (s *StateHolder) Publish(c *domain.Classification) {
	s.mu.Lock()
	s.latest = c
	s.mu.Unlock()
}

// Latest returns nil until the first pass has completed.
func (s *StateHolder) Latest() *domain.Classification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
