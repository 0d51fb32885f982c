package execution

import (
	"context"
	"fmt"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/engine/statebox"
	"go.trai.ch/zerr"
)

// Receiver accepts inbound handshake messages.
type Receiver interface {
	Receive(ctx context.Context, msg domain.Message) error
}

// Acknowledger is told about every device state so echoed writes can complete.
type Acknowledger interface {
	Acknowledge(ctx context.Context, msg domain.Message) error
}

// Dispatcher routes inbound messages: handshake replies to the scheduler, device
// state to every task bound to the device and trigger toggles to the addressed task.
type Dispatcher struct {
	cfg      *domain.Config
	boxes    map[domain.InternedString]*statebox.ReaderBox
	receiver Receiver
	acks     Acknowledger
	logger   ports.Logger
}

// NewDispatcher creates a Dispatcher over the given reader boxes. acks may be nil.
func NewDispatcher(
	cfg *domain.Config,
	boxes map[domain.InternedString]*statebox.ReaderBox,
	receiver Receiver,
	acks Acknowledger,
	logger ports.Logger,
) *Dispatcher {
	return &Dispatcher{cfg: cfg, boxes: boxes, receiver: receiver, acks: acks, logger: logger}
}

// Run routes messages from inbound until ctx is cancelled or inbound is closed.
func (d *Dispatcher) Run(ctx context.Context, inbound <-chan domain.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			d.Route(ctx, msg)
		}
	}
}

// Route delivers one message. Messages that reference unknown tasks or devices are logged and dropped.
func (d *Dispatcher) Route(ctx context.Context, msg domain.Message) {
	switch msg.Kind {
	case domain.KindGrant, domain.KindConfirmOK:
		if err := d.receiver.Receive(ctx, msg); err != nil && ctx.Err() == nil {
			d.logger.Error(zerr.With(err, "message", msg.String()))
		}
	case domain.KindState:
		tasks := d.cfg.Bound(msg.Device)
		if len(tasks) == 0 {
			d.drop(msg, domain.ErrDeviceNotFound)
			return
		}
		if d.acks != nil {
			if err := d.acks.Acknowledge(ctx, msg); err != nil {
				d.logger.Error(zerr.With(err, "message", msg.String()))
			}
		}
		for _, task := range tasks {
			if err := d.boxes[task].Insert(msg); err != nil {
				d.logger.Error(err)
			}
		}
	case domain.KindEnableTrigger, domain.KindDisableTrigger:
		box, ok := d.boxes[msg.Task]
		if !ok {
			d.drop(msg, domain.ErrTaskNotFound)
			return
		}
		toggle := box.DisableTrigger
		if msg.Kind == domain.KindEnableTrigger {
			toggle = box.EnableTrigger
		}
		if err := toggle(msg.Trigger); err != nil {
			d.logger.Error(zerr.With(err, "task", msg.Task.String()))
		}
	default:
		d.drop(msg, domain.ErrUnknownMessage)
	}
}

func (d *Dispatcher) drop(msg domain.Message, reason error) {
	d.logger.Warn(fmt.Sprintf("dropped %s: %v", msg, reason))
}
