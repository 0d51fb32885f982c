package scheduler

import (
	"container/heap"
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
)

type queuedClaim struct {
	claim domain.Claim
	seq   uint64
}

// claimHeap orders claims by descending priority, then by arrival.
type claimHeap []queuedClaim

func (h claimHeap) Len() int { return len(h) }

func (h claimHeap) Less(i, j int) bool {
	if h[i].claim.Priority != h[j].claim.Priority {
		return h[i].claim.Priority > h[j].claim.Priority
	}
	return h[i].seq < h[j].seq
}

func (h claimHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *claimHeap) Push(x any) { *h = append(*h, x.(queuedClaim)) }

func (h *claimHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DeviceWaitQueue holds the pending claims of one device together with its
// owner and the claim currently being handshaken. All fields share one lock so
// that checking whether the device is free and installing a loaded claim happen atomically.
type DeviceWaitQueue struct {
	mu      sync.Mutex
	device  domain.InternedString
	waiting claimHeap
	seq     uint64
	owner   domain.InternedString
	owned   bool
	loaded  *domain.Claim
}

// NewDeviceWaitQueue creates an empty queue for device.
func NewDeviceWaitQueue(device domain.InternedString) *DeviceWaitQueue {
	return &DeviceWaitQueue{device: device}
}

// Device returns the device this queue arbitrates.
func (q *DeviceWaitQueue) Device() domain.InternedString {
	return q.device
}

// Push enqueues a waiting claim.
func (q *DeviceWaitQueue) Push(c domain.Claim) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.push(c)
}

func (q *DeviceWaitQueue) push(c domain.Claim) {
	c.State = domain.ClaimWaiting
	heap.Push(&q.waiting, queuedClaim{claim: c, seq: q.seq})
	q.seq++
}

// PopNext removes and returns the highest-priority waiting claim.
func (q *DeviceWaitQueue) PopNext() (domain.Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popNext()
}

func (q *DeviceWaitQueue) popNext() (domain.Claim, bool) {
	if len(q.waiting) == 0 {
		return domain.Claim{}, false
	}
	item, _ := heap.Pop(&q.waiting).(queuedClaim)
	return item.claim, true
}

// IsEmpty reports whether no claim is waiting.
func (q *DeviceWaitQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting) == 0
}

// Len returns the number of waiting claims.
func (q *DeviceWaitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Remove drops every waiting claim of task and reports whether one was found.
func (q *DeviceWaitQueue) Remove(task domain.InternedString) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	found := false
	for i := len(q.waiting) - 1; i >= 0; i-- {
		if q.waiting[i].claim.Task == task {
			heap.Remove(&q.waiting, i)
			found = true
		}
	}
	return found
}

// TryLoad installs c as the loaded claim if the device is free.
func (q *DeviceWaitQueue) TryLoad(c domain.Claim) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.owned || q.loaded != nil {
		return false
	}
	c.State = domain.ClaimLoaded
	q.loaded = &c
	return true
}

// Loaded returns the claim occupying the loaded slot.
func (q *DeviceWaitQueue) Loaded() (domain.Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.loaded == nil {
		return domain.Claim{}, false
	}
	return *q.loaded, true
}

// Offered reports whether task's claim is loaded and has been offered to the device side,
// i.e. it is mid-handshake rather than staged behind the current owner.
func (q *DeviceWaitQueue) Offered(task domain.InternedString) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.owned && q.loaded != nil && q.loaded.Task == task
}

// Owner returns the task holding write ownership.
func (q *DeviceWaitQueue) Owner() (domain.InternedString, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.owner, q.owned
}

// Own transfers ownership to the loaded claimant and empties the loaded slot.
func (q *DeviceWaitQueue) Own(task domain.InternedString) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.owner = task
	q.owned = true
	q.loaded = nil
}

// Stage moves the next waiting claim into the loaded slot while the device is still owned.
// The staged claim is offered when the owner releases.
func (q *DeviceWaitQueue) Stage() (domain.Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.loaded != nil {
		return *q.loaded, false
	}
	c, ok := q.popNext()
	if !ok {
		return domain.Claim{}, false
	}
	c.State = domain.ClaimLoaded
	q.loaded = &c
	return c, true
}

// Free clears the owner and returns the claim to offer next: the staged one, or the
// highest-priority waiting claim.
func (q *DeviceWaitQueue) Free() (domain.Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.owner = domain.InternedString{}
	q.owned = false
	return q.loadNext()
}

// Unload drops task's loaded claim and loads the next waiting one.
// It returns the newly loaded claim, if any.
func (q *DeviceWaitQueue) Unload(task domain.InternedString) (domain.Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.loaded == nil || q.loaded.Task != task {
		return domain.Claim{}, false
	}
	q.loaded = nil
	return q.loadNext()
}

func (q *DeviceWaitQueue) loadNext() (domain.Claim, bool) {
	if q.loaded == nil {
		c, ok := q.popNext()
		if !ok {
			return domain.Claim{}, false
		}
		c.State = domain.ClaimLoaded
		q.loaded = &c
	}
	return *q.loaded, true
}

// State returns the device ownership state.
func (q *DeviceWaitQueue) State() domain.DeviceState {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.owned:
		return domain.DeviceOwned
	case q.loaded != nil:
		return domain.DeviceLoaded
	default:
		return domain.DeviceFree
	}
}
