package statebox

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/engine/trigger"
	"go.trai.ch/zerr"
)

// Event is a fired trigger together with the snapshot the task body runs on.
type Event struct {
	Trigger  string
	Priority int
	Values   []domain.Value
}

// ReaderBox aggregates inbound state for one task. The dispatcher inserts values
// concurrently with the task's worker taking fired events.
type ReaderBox struct {
	mu         sync.Mutex
	task       domain.InternedString
	priority   int
	boxes      []*DeviceStateBox
	byDevice   map[domain.InternedString]*DeviceStateBox
	triggers   *trigger.Manager
	pending    []Event
	maxPending int
	forwarding bool
	held       []domain.Message
	notify     chan struct{}
	logger     ports.Logger
}

// NewReaderBox creates the box for task. At most maxPending fired events are kept.
// Events fired by the initial and all-inputs rules carry the task priority.
func NewReaderBox(task domain.Task, maxPending int, logger ports.Logger) *ReaderBox {
	if maxPending <= 0 {
		maxPending = domain.DefaultMaxPending
	}
	priority := task.Priority
	if priority <= 0 {
		priority = domain.DefaultTriggerPriority
	}
	b := &ReaderBox{
		task:       task.Name,
		priority:   priority,
		byDevice:   make(map[domain.InternedString]*DeviceStateBox, len(task.Bindings)),
		triggers:   trigger.NewManager(task.Inputs(), task.Triggers),
		maxPending: maxPending,
		notify:     make(chan struct{}, 1),
		logger:     logger,
	}
	for _, binding := range task.Bindings {
		box := newDeviceStateBox(binding)
		b.boxes = append(b.boxes, box)
		b.byDevice[binding.Device] = box
	}
	return b
}

// Insert applies a STATE message. While forwarding, drop-read values are held back
// and replayed by EndForwarding.
func (b *ReaderBox) Insert(msg domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(msg)
}

func (b *ReaderBox) insert(msg domain.Message) error {
	box, ok := b.byDevice[msg.Device]
	if !ok {
		return zerr.With(zerr.With(domain.ErrDeviceNotBound, "device", msg.Device.String()), "task", b.task.String())
	}
	if box.ignoreWriteBacks && msg.Task == b.task {
		return nil
	}
	if b.forwarding && box.dropRead {
		b.hold(msg)
		return nil
	}

	box.Insert(msg.Value)
	if !box.read {
		return nil
	}

	fired, rule := b.triggers.RecordUpdate(msg.Device)
	if !fired {
		return nil
	}
	id, priority := b.triggers.Rule(rule)
	if rule < 0 {
		// Implicit rules run at the task's own priority.
		priority = b.priority
	}
	b.push(Event{Trigger: id, Priority: priority, Values: b.snapshot()})
	return nil
}

// hold keeps the latest held value per device.
func (b *ReaderBox) hold(msg domain.Message) {
	i := slices.IndexFunc(b.held, func(m domain.Message) bool { return m.Device == msg.Device })
	if i >= 0 {
		b.held = slices.Delete(b.held, i, i+1)
	}
	b.held = append(b.held, msg)
}

func (b *ReaderBox) push(ev Event) {
	if len(b.pending) == b.maxPending {
		dropped := b.pending[0]
		b.pending = slices.Delete(b.pending, 0, 1)
		b.logger.Warn(fmt.Sprintf("task %s is busy, dropped pending %q trigger", b.task, dropped.Trigger))
	}
	b.pending = append(b.pending, ev)
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Snapshot returns one value per binding, in binding order, consuming unread values.
func (b *ReaderBox) Snapshot() []domain.Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *ReaderBox) snapshot() []domain.Value {
	values := make([]domain.Value, len(b.boxes))
	for i, box := range b.boxes {
		values[i] = box.Take()
		if box.Unread() > 0 {
			b.triggers.Touch(box.device)
		}
	}
	return values
}

// Next blocks until a fired event is pending and returns the oldest one.
func (b *ReaderBox) Next(ctx context.Context) (Event, error) {
	for {
		b.mu.Lock()
		if len(b.pending) > 0 {
			ev := b.pending[0]
			b.pending = slices.Delete(b.pending, 0, 1)
			b.mu.Unlock()
			return ev, nil
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Pending returns the number of fired events waiting to run.
func (b *ReaderBox) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// BeginForwarding starts holding drop-read updates for the duration of a cycle.
func (b *ReaderBox) BeginForwarding() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarding = true
}

// EndForwarding stops holding updates and replays the held ones, which may fire the task again.
func (b *ReaderBox) EndForwarding() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.forwarding = false
	held := b.held
	b.held = nil
	for _, msg := range held {
		_ = b.insert(msg)
	}
}

// EnableTrigger re-enables the trigger rule id.
func (b *ReaderBox) EnableTrigger(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.triggers.Enable(id)
}

// DisableTrigger disables the trigger rule id.
func (b *ReaderBox) DisableTrigger(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.triggers.Disable(id)
}
