package relay

import (
	"sync"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// MemoryRelay is a relay driver with no hardware behind it, used in tests
// and on development hosts without a GPIO controller.
type MemoryRelay struct {
	mu     sync.Mutex
	active bool
}

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{}
}

var _ outbound.RelayDriver = (*MemoryRelay)(nil)

func (r *MemoryRelay) Set(active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = active
	return nil
}

func (r *MemoryRelay) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
