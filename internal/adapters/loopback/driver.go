// Package loopback implements an in-process device driver. It plays the device
// owner's side of the ownership handshake and keeps device values in a Store.
package loopback

import (
	"context"
	"time"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Driver implements ports.Driver.
type Driver struct {
	cfg   *domain.Config
	store Store
	box   *mailbox
}

// New creates a loopback driver backed by a MemoryStore.
func New(cfg *domain.Config) *Driver {
	return NewWithStore(cfg, NewMemoryStore(cfg))
}

// NewWithStore creates a loopback driver backed by store.
func NewWithStore(cfg *domain.Config, store Store) *Driver {
	return &Driver{
		cfg:   cfg,
		store: store,
		box:   newMailbox(),
	}
}

// Inbound returns the channel of messages addressed to the core.
func (d *Driver) Inbound() <-chan domain.Message {
	return d.box.out
}

// Send answers one outbound message. Replies are queued and never block the caller.
func (d *Driver) Send(_ context.Context, msg domain.Message) error {
	switch msg.Kind {
	case domain.KindOwnershipOffer:
		d.box.put(domain.Message{Kind: domain.KindGrant, Task: msg.Task, Device: msg.Device, Priority: msg.Priority})
	case domain.KindConfirm:
		d.box.put(domain.Message{Kind: domain.KindConfirmOK, Task: msg.Task, Device: msg.Device})
	case domain.KindWriteState:
		if err := d.store.Set(msg.Device, msg.Value); err != nil {
			return zerr.With(err, "device", msg.Device.String())
		}
		d.box.put(domain.Message{Kind: domain.KindState, Task: msg.Task, Device: msg.Device, Value: msg.Value})
	case domain.KindRequestStates:
		task, ok := d.cfg.Task(msg.Task)
		if !ok {
			return zerr.With(domain.ErrTaskNotFound, "task", msg.Task.String())
		}
		for _, b := range task.Bindings {
			if !b.Virtual {
				d.Publish(b.Device)
			}
		}
	case domain.KindRelease, domain.KindRequestConcluded, domain.KindProcessExec:
	default:
		return zerr.With(domain.ErrUnknownMessage, "kind", string(msg.Kind))
	}
	return nil
}

// Publish queues a STATE update carrying device's stored value. Devices without a value are skipped.
func (d *Driver) Publish(device domain.InternedString) {
	if v, ok := d.store.Get(device); ok {
		d.box.put(domain.Message{Kind: domain.KindState, Device: device, Value: v})
	}
}

// Start delivers queued messages and re-publishes polled devices until ctx is cancelled.
func (d *Driver) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.box.pump(ctx)
		return nil
	})

	for dev := range d.cfg.Devices() {
		period := d.pollPeriod(dev)
		if period <= 0 {
			continue
		}
		g.Go(func() error {
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					d.Publish(dev.Name)
				}
			}
		})
	}

	return g.Wait()
}

func (d *Driver) pollPeriod(dev domain.Device) time.Duration {
	if dev.Virtual || dev.Kind != domain.KindPolling {
		return 0
	}
	if dev.PollPeriod > 0 {
		return dev.PollPeriod
	}
	return d.cfg.Driver.Poll
}
