package statebox

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
)

type heldConfirm struct {
	msg     domain.Message
	noYield bool
	policy  domain.OverwritePolicy
}

// WriterBox serializes the writes to one device. A write stays in flight until the
// device echoes it back as STATE from the writing task, and later writes queue behind it.
// An ownership confirmation for the device is held while earlier writes are pending.
type WriterBox struct {
	mu       sync.Mutex
	device   domain.InternedString
	next     ports.Sender
	inflight *domain.Message
	queue    []domain.Message
	confirm  *heldConfirm
}

// NewWriterBox creates the writer for device. Messages leave through next.
func NewWriterBox(device domain.InternedString, next ports.Sender) *WriterBox {
	return &WriterBox{device: device, next: next}
}

// Write sends msg if the device is idle. Otherwise policy decides whether msg is
// queued, dropped, or replaces the queued writes.
func (w *WriterBox) Write(ctx context.Context, msg domain.Message, policy domain.OverwritePolicy) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inflight == nil {
		return w.send(ctx, msg)
	}
	switch policy {
	case domain.OverwriteDiscard:
	case domain.OverwriteCurrent:
		clear(w.queue)
		w.queue = append(w.queue[:0], msg)
	default:
		w.queue = append(w.queue, msg)
	}
	return nil
}

// Confirm forwards an ownership confirmation, or holds it while a write is in flight.
// A held confirmation goes out once the queue drains, or with noYield at the next echo.
func (w *WriterBox) Confirm(ctx context.Context, msg domain.Message, noYield bool, policy domain.OverwritePolicy) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inflight == nil {
		return w.next.Send(ctx, msg)
	}
	w.confirm = &heldConfirm{msg: msg, noYield: noYield, policy: policy}
	return nil
}

// Cancel drops the confirmation held for task, if any.
func (w *WriterBox) Cancel(task domain.InternedString) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.confirm != nil && w.confirm.msg.Task == task {
		w.confirm = nil
	}
}

// Acknowledge completes the write in flight when msg is its echo, then sends what waits next.
func (w *WriterBox) Acknowledge(ctx context.Context, msg domain.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inflight == nil || w.inflight.Task != msg.Task {
		return nil
	}
	w.inflight = nil

	var errs []error
	if c := w.confirm; c != nil && c.noYield {
		w.confirm = nil
		if c.policy == domain.OverwriteClear {
			clear(w.queue)
			w.queue = w.queue[:0]
		}
		if err := w.next.Send(ctx, c.msg); err != nil {
			errs = append(errs, err)
		}
	}

	for w.inflight == nil && len(w.queue) > 0 {
		next := w.queue[0]
		w.queue[0] = domain.Message{}
		w.queue = w.queue[1:]
		if err := w.send(ctx, next); err != nil {
			errs = append(errs, err)
		}
	}

	if c := w.confirm; c != nil && w.inflight == nil {
		w.confirm = nil
		if err := w.next.Send(ctx, c.msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending returns the number of writes not yet echoed, the one in flight included.
func (w *WriterBox) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.queue)
	if w.inflight != nil {
		n++
	}
	return n
}

func (w *WriterBox) send(ctx context.Context, msg domain.Message) error {
	if err := w.next.Send(ctx, msg); err != nil {
		return zerr.With(err, "device", w.device.String())
	}
	w.inflight = &msg
	return nil
}

type writerKey struct {
	task   domain.InternedString
	device domain.InternedString
}

// Writers puts a WriterBox in front of every driver device a task writes. It implements
// ports.Sender; messages for any other device pass straight through.
type Writers struct {
	next     ports.Sender
	boxes    map[domain.InternedString]*WriterBox
	bindings map[writerKey]domain.Binding
}

// NewWriters creates the writers for cfg in front of next.
func NewWriters(cfg *domain.Config, next ports.Sender) *Writers {
	w := &Writers{
		next:     next,
		boxes:    make(map[domain.InternedString]*WriterBox),
		bindings: make(map[writerKey]domain.Binding),
	}
	for task := range cfg.Tasks() {
		for _, b := range task.Bindings {
			if !b.Write || b.Virtual {
				continue
			}
			w.bindings[writerKey{task: task.Name, device: b.Device}] = b
			if _, ok := w.boxes[b.Device]; !ok {
				w.boxes[b.Device] = NewWriterBox(b.Device, next)
			}
		}
	}
	return w
}

// Send routes writes and ownership confirmations through the device's WriterBox.
// A release drops any confirmation still held for the releasing task.
func (w *Writers) Send(ctx context.Context, msg domain.Message) error {
	box, ok := w.boxes[msg.Device]
	if !ok {
		return w.next.Send(ctx, msg)
	}

	b, bound := w.bindings[writerKey{task: msg.Task, device: msg.Device}]
	switch msg.Kind {
	case domain.KindWriteState:
		if !bound {
			return zerr.With(zerr.With(domain.ErrDeviceNotBound, "device", msg.Device.String()), "task", msg.Task.String())
		}
		return box.Write(ctx, msg, b.Overwrite)
	case domain.KindConfirm:
		return box.Confirm(ctx, msg, b.NoYield, b.Overwrite)
	case domain.KindRelease:
		box.Cancel(msg.Task)
	}
	return w.next.Send(ctx, msg)
}

// Acknowledge treats a STATE message carrying a task as the echo of that task's write.
func (w *Writers) Acknowledge(ctx context.Context, msg domain.Message) error {
	if msg.Kind != domain.KindState || msg.Task.IsZero() {
		return nil
	}
	box, ok := w.boxes[msg.Device]
	if !ok {
		return nil
	}
	return box.Acknowledge(ctx, msg)
}

// Pending returns the unacknowledged writes of device.
func (w *Writers) Pending(device domain.InternedString) int {
	box, ok := w.boxes[device]
	if !ok {
		return 0
	}
	return box.Pending()
}
