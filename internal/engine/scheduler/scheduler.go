package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
)

type taskPhase int

const (
	phaseIdle taskPhase = iota
	phaseRequesting
	phaseOwning
)

type taskState struct {
	name     domain.InternedString
	mustOwn  []domain.InternedString
	barrier  *TaskBarrier
	phase    taskPhase
	priority int
	// placed counts the devices whose claim has been handed to a queue this cycle.
	placed int
}

// DeviceStatus is a point-in-time view of one arbitrated device.
type DeviceStatus struct {
	Device  domain.InternedString
	State   domain.DeviceState
	Owner   domain.InternedString
	Loaded  domain.InternedString
	Waiting int
}

type requestCmd struct {
	task     domain.InternedString
	priority int
	reply    chan error
}

type withdrawCmd struct {
	task  domain.InternedString
	cause error
	reply chan error
}

type releaseCmd struct {
	task  domain.InternedString
	reply chan error
}

// Scheduler arbitrates write ownership of devices among tasks.
// All queue and barrier transitions happen on the goroutine running Run;
// Request, Receive and Release hand commands to it over channels.
// Virtual devices are queued like any other, but their offers are granted and
// confirmed on the loop itself and never reach the sender.
type Scheduler struct {
	sender ports.Sender
	logger ports.Logger

	tasks   map[domain.InternedString]*taskState
	devices map[domain.InternedString]*DeviceWaitQueue
	local   map[domain.InternedString]bool

	requests  chan requestCmd
	withdraws chan withdrawCmd
	releases  chan releaseCmd
	inbound   chan domain.Message
	statuses  chan chan []DeviceStatus
	done      chan struct{}
}

// NewScheduler creates a Scheduler for every task and arbitrated device in cfg.
func NewScheduler(cfg *domain.Config, sender ports.Sender, logger ports.Logger) *Scheduler {
	s := &Scheduler{
		sender:    sender,
		logger:    logger,
		tasks:     make(map[domain.InternedString]*taskState, cfg.TaskCount()),
		devices:   make(map[domain.InternedString]*DeviceWaitQueue),
		local:     make(map[domain.InternedString]bool),
		requests:  make(chan requestCmd),
		withdraws: make(chan withdrawCmd),
		releases:  make(chan releaseCmd),
		inbound:   make(chan domain.Message, cfg.TaskCount()+1),
		statuses:  make(chan chan []DeviceStatus),
		done:      make(chan struct{}),
	}

	for task := range cfg.Tasks() {
		mustOwn := task.MustOwn()
		s.tasks[task.Name] = &taskState{
			name:    task.Name,
			mustOwn: mustOwn,
			barrier: NewTaskBarrier(mustOwn),
		}
		for _, dev := range mustOwn {
			if _, ok := s.devices[dev]; !ok {
				s.devices[dev] = NewDeviceWaitQueue(dev)
			}
			if d, ok := cfg.Device(dev); ok && d.Virtual {
				s.local[dev] = true
			}
		}
	}

	return s
}

// Run processes commands and inbound handshake messages until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-s.requests:
			cmd.reply <- s.handleRequest(ctx, cmd)
		case cmd := <-s.withdraws:
			cmd.reply <- s.handleWithdraw(ctx, cmd)
		case cmd := <-s.releases:
			cmd.reply <- s.handleRelease(ctx, cmd.task)
		case msg := <-s.inbound:
			s.handleMessage(ctx, msg)
		case reply := <-s.statuses:
			reply <- s.status()
		}
	}
}

// Request bids for every device task must own and blocks until ownership of the
// whole set has been granted and confirmed. If ctx ends first the bids are withdrawn
// and an error wrapping ErrRequestWithdrawn is returned.
func (s *Scheduler) Request(ctx context.Context, task domain.InternedString, priority int) error {
	ts, ok := s.tasks[task]
	if !ok {
		return zerr.With(domain.ErrTaskNotFound, "task", task.String())
	}

	reply := make(chan error, 1)
	if err := call(ctx, s, s.requests, requestCmd{task: task, priority: priority, reply: reply}, reply); err != nil {
		return err
	}
	if len(ts.mustOwn) == 0 {
		return nil
	}

	waitErr := ts.barrier.AwaitAll(ctx)
	if waitErr == nil {
		return nil
	}

	// The loop may have completed the handshake after ctx ended; withdrawal reports that as success.
	reply = make(chan error, 1)
	return call(context.WithoutCancel(ctx), s, s.withdraws, withdrawCmd{task: task, cause: waitErr, reply: reply}, reply)
}

// Receive queues an inbound handshake message for the scheduler loop.
func (s *Scheduler) Receive(ctx context.Context, msg domain.Message) error {
	select {
	case <-s.done:
		return domain.ErrSchedulerStopped
	default:
	}

	select {
	case s.inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSchedulerStopped
	}
}

// Release frees every device task owns and offers each one to its next claimant.
func (s *Scheduler) Release(ctx context.Context, task domain.InternedString) error {
	reply := make(chan error, 1)
	return call(ctx, s, s.releases, releaseCmd{task: task, reply: reply}, reply)
}

// Status returns the state of every arbitrated device, sorted by name.
func (s *Scheduler) Status(ctx context.Context) ([]DeviceStatus, error) {
	reply := make(chan []DeviceStatus, 1)
	select {
	case s.statuses <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, domain.ErrSchedulerStopped
	}
	return <-reply, nil
}

func call[T any](ctx context.Context, s *Scheduler, ch chan<- T, cmd T, reply <-chan error) error {
	select {
	case ch <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSchedulerStopped
	}
	return <-reply
}

func (s *Scheduler) handleRequest(ctx context.Context, cmd requestCmd) error {
	ts := s.tasks[cmd.task]
	if ts.phase != phaseIdle {
		return zerr.With(domain.ErrRequestInFlight, "task", ts.name.String())
	}

	if len(ts.mustOwn) == 0 {
		s.send(ctx, domain.Message{Kind: domain.KindRequestConcluded, Task: ts.name, Priority: cmd.priority})
		return nil
	}

	ts.phase = phaseRequesting
	ts.priority = cmd.priority
	ts.placed = 0
	ts.barrier.Begin()
	s.place(ctx, ts)
	return nil
}

// place hands ts's claims to the device queues in device order. The claim for a
// device is placed only once ts holds the loaded slot of the previous one, so two
// tasks with overlapping device sets never hold each other's devices.
func (s *Scheduler) place(ctx context.Context, ts *taskState) {
	if ts.phase != phaseRequesting {
		return
	}
	for ts.placed < len(ts.mustOwn) {
		if ts.placed > 0 {
			prev, ok := s.devices[ts.mustOwn[ts.placed-1]].Loaded()
			if !ok || prev.Task != ts.name {
				return
			}
		}

		dev := ts.mustOwn[ts.placed]
		q := s.devices[dev]
		claim := domain.Claim{Task: ts.name, Device: dev, Priority: ts.priority}
		ts.placed++

		if !q.TryLoad(claim) {
			q.Push(claim)
			return
		}
		s.offer(ctx, claim)
	}
}

func (s *Scheduler) offer(ctx context.Context, c domain.Claim) {
	if s.local[c.Device] {
		s.handleGrant(ctx, domain.Message{Kind: domain.KindGrant, Task: c.Task, Device: c.Device, Priority: c.Priority})
		return
	}
	s.send(ctx, domain.Message{Kind: domain.KindOwnershipOffer, Task: c.Task, Device: c.Device, Priority: c.Priority})
}

func (s *Scheduler) confirm(ctx context.Context, task, dev domain.InternedString) {
	if s.local[dev] {
		s.handleConfirmOK(ctx, domain.Message{Kind: domain.KindConfirmOK, Task: task, Device: dev})
		return
	}
	s.send(ctx, domain.Message{Kind: domain.KindConfirm, Task: task, Device: dev})
}

func (s *Scheduler) release(ctx context.Context, task, dev domain.InternedString) {
	if !s.local[dev] {
		s.send(ctx, domain.Message{Kind: domain.KindRelease, Task: task, Device: dev})
	}
}

// loaded runs after c took over a loaded slot outside of place, letting its task bid for the next device.
func (s *Scheduler) loaded(ctx context.Context, c domain.Claim) {
	if ts, ok := s.tasks[c.Task]; ok {
		s.place(ctx, ts)
	}
}

func (s *Scheduler) handleMessage(ctx context.Context, msg domain.Message) {
	if s.local[msg.Device] {
		s.drop(msg, domain.ErrStaleHandshake)
		return
	}
	switch msg.Kind {
	case domain.KindGrant:
		s.handleGrant(ctx, msg)
	case domain.KindConfirmOK:
		s.handleConfirmOK(ctx, msg)
	default:
		s.drop(msg, domain.ErrUnknownMessage)
	}
}

// handshake resolves the task and device of a GRANT or CONFIRM_OK and checks that the
// task's claim is the one mid-handshake on the device.
func (s *Scheduler) handshake(msg domain.Message) (*taskState, bool) {
	ts, ok := s.tasks[msg.Task]
	if !ok {
		s.drop(msg, domain.ErrTaskNotFound)
		return nil, false
	}
	q, ok := s.devices[msg.Device]
	if !ok {
		s.drop(msg, domain.ErrDeviceNotFound)
		return nil, false
	}
	if ts.phase != phaseRequesting || !q.Offered(ts.name) {
		s.drop(msg, domain.ErrStaleHandshake)
		return nil, false
	}
	return ts, true
}

func (s *Scheduler) handleGrant(ctx context.Context, msg domain.Message) {
	ts, ok := s.handshake(msg)
	if !ok {
		return
	}
	if !ts.barrier.RecordGrant(msg.Device) {
		return
	}
	for _, dev := range ts.mustOwn {
		s.confirm(ctx, ts.name, dev)
	}
}

func (s *Scheduler) handleConfirmOK(ctx context.Context, msg domain.Message) {
	ts, ok := s.handshake(msg)
	if !ok {
		return
	}
	if !ts.barrier.AllGranted() {
		s.drop(msg, domain.ErrStaleHandshake)
		return
	}
	if !ts.barrier.RecordConfirm(msg.Device) {
		return
	}

	ts.phase = phaseOwning
	for _, dev := range ts.mustOwn {
		q := s.devices[dev]
		q.Own(ts.name)
		if next, staged := q.Stage(); staged {
			s.loaded(ctx, next)
		}
	}
}

func (s *Scheduler) handleRelease(ctx context.Context, task domain.InternedString) error {
	ts, ok := s.tasks[task]
	if !ok {
		return zerr.With(domain.ErrTaskNotFound, "task", task.String())
	}
	if ts.phase != phaseOwning {
		return zerr.With(domain.ErrNotOwner, "task", task.String())
	}

	ts.phase = phaseIdle
	for _, dev := range ts.mustOwn {
		q := s.devices[dev]
		next, ok := q.Free()
		s.release(ctx, ts.name, dev)
		if ok {
			s.offer(ctx, next)
			s.loaded(ctx, next)
		}
	}
	return nil
}

func (s *Scheduler) handleWithdraw(ctx context.Context, cmd withdrawCmd) error {
	ts := s.tasks[cmd.task]
	switch ts.phase {
	case phaseOwning:
		return nil
	case phaseIdle:
		return zerr.With(errors.Join(domain.ErrRequestWithdrawn, cmd.cause), "task", ts.name.String())
	}

	ts.barrier.Cancel()
	ts.phase = phaseIdle

	for _, dev := range ts.mustOwn[:ts.placed] {
		q := s.devices[dev]
		if q.Remove(ts.name) {
			continue
		}
		offered := q.Offered(ts.name)
		next, ok := q.Unload(ts.name)
		if offered {
			s.release(ctx, ts.name, dev)
			if ok {
				s.offer(ctx, next)
			}
		}
		if ok {
			s.loaded(ctx, next)
		}
	}
	ts.placed = 0

	s.logger.Warn(fmt.Sprintf("task %s withdrew its ownership request: %v", ts.name, cmd.cause))
	return zerr.With(errors.Join(domain.ErrRequestWithdrawn, cmd.cause), "task", ts.name.String())
}

func (s *Scheduler) status() []DeviceStatus {
	out := make([]DeviceStatus, 0, len(s.devices))
	for dev, q := range s.devices {
		st := DeviceStatus{Device: dev, State: q.State(), Waiting: q.Len()}
		if owner, ok := q.Owner(); ok {
			st.Owner = owner
		}
		if c, ok := q.Loaded(); ok {
			st.Loaded = c.Task
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b DeviceStatus) int {
		return domain.CompareInterned(a.Device, b.Device)
	})
	return out
}

func (s *Scheduler) send(ctx context.Context, msg domain.Message) {
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error(zerr.With(err, "message", msg.String()))
	}
}

func (s *Scheduler) drop(msg domain.Message, reason error) {
	s.logger.Warn(fmt.Sprintf("dropped %s: %v", msg, reason))
}
