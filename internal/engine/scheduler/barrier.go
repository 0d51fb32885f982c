package scheduler

import (
	"context"
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
)

type barrierSlot struct {
	granted   bool
	confirmed bool
}

// TaskBarrier counts grants and confirmations for one task's device set.
// A cycle completes once every device has been granted and then confirmed.
type TaskBarrier struct {
	mu        sync.Mutex
	slots     map[domain.InternedString]*barrierSlot
	required  int
	granted   int
	confirmed int
	active    bool
	done      chan struct{}
}

// NewTaskBarrier creates a barrier over mustOwn.
func NewTaskBarrier(mustOwn []domain.InternedString) *TaskBarrier {
	slots := make(map[domain.InternedString]*barrierSlot, len(mustOwn))
	for _, dev := range mustOwn {
		slots[dev] = &barrierSlot{}
	}
	return &TaskBarrier{
		slots:    slots,
		required: len(slots),
		done:     make(chan struct{}),
	}
}

// Begin arms the barrier for a new cycle.
func (b *TaskBarrier) Begin() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reset()
	b.active = true
	b.done = make(chan struct{})
}

// RecordGrant marks dev as granted and reports whether every device has now been granted.
// Devices outside the set and repeated grants are ignored.
func (b *TaskBarrier) RecordGrant(dev domain.InternedString) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	slot, ok := b.slots[dev]
	if !b.active || !ok || slot.granted {
		return false
	}
	slot.granted = true
	b.granted++
	return b.granted == b.required
}

// RecordConfirm marks dev as confirmed and reports whether the cycle just completed.
// Confirmations only count once every grant is in; completing the cycle wakes AwaitAll
// and resets the counters.
func (b *TaskBarrier) RecordConfirm(dev domain.InternedString) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	slot, ok := b.slots[dev]
	if !b.active || !ok || slot.confirmed || b.granted < b.required {
		return false
	}
	slot.confirmed = true
	b.confirmed++
	if b.confirmed < b.required {
		return false
	}

	close(b.done)
	b.reset()
	b.active = false
	return true
}

// AllGranted reports whether the grant phase of the current cycle is complete.
func (b *TaskBarrier) AllGranted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active && b.granted == b.required
}

// AwaitAll blocks until the current cycle completes or ctx is done.
func (b *TaskBarrier) AwaitAll(ctx context.Context) error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel abandons the current cycle without waking waiters.
func (b *TaskBarrier) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.reset()
	b.active = false
}

// Counts returns the grant and confirm counters of the current cycle.
func (b *TaskBarrier) Counts() (granted, confirmed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.granted, b.confirmed
}

func (b *TaskBarrier) reset() {
	for _, slot := range b.slots {
		*slot = barrierSlot{}
	}
	b.granted = 0
	b.confirmed = 0
}
