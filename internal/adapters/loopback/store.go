package loopback

import (
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
)

// Store holds the current value of every device a driver serves.
type Store interface {
	Get(device domain.InternedString) (domain.Value, bool)
	Set(device domain.InternedString, value domain.Value) error
}

// MemoryStore keeps device values in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[domain.InternedString]domain.Value
}

// NewMemoryStore creates a store seeded with every device's non-nil initial value.
func NewMemoryStore(cfg *domain.Config) *MemoryStore {
	s := &MemoryStore{values: make(map[domain.InternedString]domain.Value)}
	for dev := range cfg.Devices() {
		if dev.Initial != nil && !dev.Virtual {
			s.values[dev.Name] = dev.Initial
		}
	}
	return s
}

// Get returns the stored value of device.
func (s *MemoryStore) Get(device domain.InternedString) (domain.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[device]
	return v, ok
}

// Set stores value for device.
func (s *MemoryStore) Set(device domain.InternedString, value domain.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[device] = value
	return nil
}
