// Package execution runs tasks: it waits for their triggers, acquires ownership of their
// output devices, runs their bodies and writes the results.
package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/engine/statebox"
	"go.trai.ch/zerr"
)

// Arbiter grants tasks exclusive ownership of their output devices.
type Arbiter interface {
	Request(ctx context.Context, task domain.InternedString, priority int) error
	Release(ctx context.Context, task domain.InternedString) error
}

// Unit is the run loop of one task.
type Unit struct {
	task    domain.Task
	box     *statebox.ReaderBox
	arbiter Arbiter
	sender  ports.Sender
	local   func(domain.Message)
	body    ports.TaskBody
	tracer  ports.Tracer
	logger  ports.Logger
	timeout time.Duration
}

// UnitConfig groups the collaborators of a Unit.
type UnitConfig struct {
	Task    domain.Task
	Box     *statebox.ReaderBox
	Arbiter Arbiter
	Sender  ports.Sender

	// Local receives writes to virtual devices, which never leave the process.
	Local   func(domain.Message)
	Body    ports.TaskBody
	Tracer  ports.Tracer
	Logger  ports.Logger
	Timeout time.Duration
}

// NewUnit creates a Unit from cfg.
func NewUnit(cfg UnitConfig) *Unit {
	return &Unit{
		task:    cfg.Task,
		box:     cfg.Box,
		arbiter: cfg.Arbiter,
		sender:  cfg.Sender,
		local:   cfg.Local,
		body:    cfg.Body,
		tracer:  cfg.Tracer,
		logger:  cfg.Logger,
		timeout: cfg.Timeout,
	}
}

// Run executes one cycle per fired event until ctx is cancelled.
// A failed cycle is logged and the loop carries on with the next event.
func (u *Unit) Run(ctx context.Context) error {
	for {
		ev, err := u.box.Next(ctx)
		if err != nil {
			return nil
		}
		if err := u.cycle(ctx, ev); err != nil {
			u.logger.Error(err)
		}
	}
}

func (u *Unit) cycle(ctx context.Context, ev statebox.Event) (err error) {
	cycleID := uuid.NewString()
	ctx, span := u.tracer.Start(ctx, "task.cycle", ports.AsRoot())
	span.SetAttribute("task", u.task.Name.String())
	span.SetAttribute("trigger", ev.Trigger)
	span.SetAttribute("priority", ev.Priority)
	span.SetAttribute("cycle.id", cycleID)
	defer func() {
		if err != nil {
			err = zerr.With(zerr.With(err, "task", u.task.Name.String()), "cycle", cycleID)
			span.RecordError(err)
		}
		span.End()
	}()

	u.box.BeginForwarding()
	defer u.box.EndForwarding()

	reqCtx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	if err := u.arbiter.Request(reqCtx, u.task.Name, ev.Priority); err != nil {
		return err
	}
	span.AddEvent("ownership.acquired")
	defer u.release(ctx)

	u.send(ctx, domain.Message{
		Kind:     domain.KindProcessExec,
		Task:     u.task.Name,
		Trigger:  ev.Trigger,
		Priority: ev.Priority,
	})

	out, err := u.body.Run(ctx, ev.Values)
	if err != nil {
		return zerr.Wrap(err, "task body failed")
	}
	if len(out) != len(ev.Values) {
		return zerr.With(zerr.With(domain.ErrBodyOutputMismatch, "expected", len(ev.Values)), "got", len(out))
	}
	span.AddEvent("body.finished")

	u.write(ctx, ev.Values, out)
	return nil
}

// write emits the outputs that differ from the snapshot the body ran on.
func (u *Unit) write(ctx context.Context, in, out []domain.Value) {
	for i, b := range u.task.Bindings {
		if !b.Write || digest(in[i]) == digest(out[i]) {
			continue
		}
		msg := domain.Message{Kind: domain.KindWriteState, Task: u.task.Name, Device: b.Device, Value: out[i]}
		if b.Virtual {
			if u.local != nil {
				msg.Kind = domain.KindState
				u.local(msg)
			}
			continue
		}
		u.send(ctx, msg)
	}
}

func (u *Unit) release(ctx context.Context) {
	if err := u.arbiter.Release(context.WithoutCancel(ctx), u.task.Name); err != nil {
		u.logger.Error(zerr.With(err, "task", u.task.Name.String()))
	}
}

func (u *Unit) send(ctx context.Context, msg domain.Message) {
	if err := u.sender.Send(ctx, msg); err != nil {
		u.logger.Error(zerr.With(err, "message", msg.String()))
	}
}

func digest(v domain.Value) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%#v", v))
}
