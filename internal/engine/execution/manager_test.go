package execution_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/core/ports/mocks"
	"go.trai.ch/blueshift/internal/engine/execution"
	"go.uber.org/mock/gomock"
)

// echoDriver grants every offer, confirms every confirm and echoes writes back as state.
type echoDriver struct {
	mu      sync.Mutex
	sent    []domain.MessageKind
	inbound chan domain.Message
	states  map[string]domain.Value
}

func newEchoDriver(states map[string]domain.Value) *echoDriver {
	return &echoDriver{inbound: make(chan domain.Message, 64), states: states}
}

func (d *echoDriver) Inbound() <-chan domain.Message { return d.inbound }

func (d *echoDriver) Start(context.Context) error { return nil }

func (d *echoDriver) Send(_ context.Context, msg domain.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg.Kind)

	switch msg.Kind {
	case domain.KindOwnershipOffer:
		d.inbound <- domain.Message{Kind: domain.KindGrant, Task: msg.Task, Device: msg.Device, Priority: msg.Priority}
	case domain.KindConfirm:
		d.inbound <- domain.Message{Kind: domain.KindConfirmOK, Task: msg.Task, Device: msg.Device}
	case domain.KindWriteState:
		d.states[msg.Device.String()] = msg.Value
		d.inbound <- domain.Message{Kind: domain.KindState, Task: msg.Task, Device: msg.Device, Value: msg.Value}
	case domain.KindRequestStates:
		for dev, v := range d.states {
			d.inbound <- state(dev, v)
		}
	}
	return nil
}

func (d *echoDriver) kinds() []domain.MessageKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.MessageKind(nil), d.sent...)
}

func (d *echoDriver) value(dev string) domain.Value {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[dev]
}

func mirrorConfig(t *testing.T) *domain.Config {
	t.Helper()
	cfg := domain.NewConfig()
	require.NoError(t, cfg.AddDevice(&domain.Device{Name: name("switch")}))
	require.NoError(t, cfg.AddDevice(&domain.Device{Name: name("lamp"), Initial: false}))
	require.NoError(t, cfg.AddTask(&domain.Task{
		Name: name("mirror"),
		Bindings: []domain.Binding{
			{Device: name("switch"), Read: true},
			{Device: name("lamp"), Write: true},
		},
	}))
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestManager_RunsTaskOnInitialState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cfg := mirrorConfig(t)
		driver := newEchoDriver(map[string]domain.Value{"switch": true})
		tracer, _ := quietTracer(ctrl)
		logger := mocks.NewMockLogger(ctrl)

		bodies := mocks.NewMockBodyFactory(ctrl)
		bodies.EXPECT().Body(gomock.Any()).Return(bodyFunc(func(_ context.Context, in []domain.Value) ([]domain.Value, error) {
			return []domain.Value{in[0], in[0]}, nil
		}), nil)

		m, err := execution.NewManager(cfg, driver, bodies, tracer, logger)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()
		synctest.Wait()

		assert.Equal(t, []domain.MessageKind{
			domain.KindRequestStates,
			domain.KindOwnershipOffer,
			domain.KindConfirm,
			domain.KindProcessExec,
			domain.KindWriteState,
			domain.KindRelease,
		}, driver.kinds())
		assert.Equal(t, true, driver.value("lamp"))

		statuses, err := m.Scheduler().Status(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 1)
		assert.Equal(t, domain.DeviceFree, statuses[0].State)

		cancel()
		require.NoError(t, <-done)
	})
}

// lazyDriver grants offers and confirms at once but holds write echoes until released.
type lazyDriver struct {
	mu        sync.Mutex
	sent      []domain.Message
	held      []domain.Message
	published bool
	inbound   chan domain.Message
}

func newLazyDriver() *lazyDriver {
	return &lazyDriver{inbound: make(chan domain.Message, 64)}
}

func (d *lazyDriver) Inbound() <-chan domain.Message { return d.inbound }

func (d *lazyDriver) Start(context.Context) error { return nil }

func (d *lazyDriver) Send(_ context.Context, msg domain.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)

	switch msg.Kind {
	case domain.KindOwnershipOffer:
		d.inbound <- domain.Message{Kind: domain.KindGrant, Task: msg.Task, Device: msg.Device, Priority: msg.Priority}
	case domain.KindConfirm:
		d.inbound <- domain.Message{Kind: domain.KindConfirmOK, Task: msg.Task, Device: msg.Device}
	case domain.KindWriteState:
		d.held = append(d.held, domain.Message{Kind: domain.KindState, Task: msg.Task, Device: msg.Device, Value: msg.Value})
	case domain.KindRequestStates:
		if !d.published {
			d.published = true
			d.inbound <- state("switch", true)
		}
	}
	return nil
}

// echo delivers the held write echoes.
func (d *lazyDriver) echo() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, msg := range d.held {
		d.inbound <- msg
	}
	d.held = nil
}

func (d *lazyDriver) count(kind domain.MessageKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, msg := range d.sent {
		if msg.Kind == kind {
			n++
		}
	}
	return n
}

// TestManager_ConfirmWaitsForPreviousOwnersWrites runs two tasks writing the same lamp and
// verifies the second is only confirmed once the device has echoed the first one's write.
func TestManager_ConfirmWaitsForPreviousOwnersWrites(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cfg := domain.NewConfig()
		require.NoError(t, cfg.AddDevice(&domain.Device{Name: name("switch")}))
		require.NoError(t, cfg.AddDevice(&domain.Device{Name: name("lamp")}))
		for _, task := range []string{"a", "b"} {
			require.NoError(t, cfg.AddTask(&domain.Task{
				Name: name(task),
				Bindings: []domain.Binding{
					{Device: name("switch"), Read: true},
					{Device: name("lamp"), Write: true},
				},
			}))
		}
		require.NoError(t, cfg.Validate())

		driver := newLazyDriver()
		tracer, _ := quietTracer(ctrl)
		logger := mocks.NewMockLogger(ctrl)

		bodies := mocks.NewMockBodyFactory(ctrl)
		bodies.EXPECT().Body(gomock.Any()).DoAndReturn(func(task domain.Task) (ports.TaskBody, error) {
			v := task.Name.String()
			return bodyFunc(func(_ context.Context, in []domain.Value) ([]domain.Value, error) {
				return []domain.Value{in[0], v}, nil
			}), nil
		}).Times(2)

		m, err := execution.NewManager(cfg, driver, bodies, tracer, logger)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()
		synctest.Wait()

		assert.Equal(t, 1, driver.count(domain.KindConfirm), "second owner is held behind the unechoed write")
		assert.Equal(t, 1, driver.count(domain.KindWriteState))
		assert.Equal(t, 1, m.Writers().Pending(name("lamp")))

		statuses, err := m.Scheduler().Status(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 1)
		assert.Equal(t, domain.DeviceLoaded, statuses[0].State)

		driver.echo()
		synctest.Wait()

		assert.Equal(t, 2, driver.count(domain.KindConfirm))
		assert.Equal(t, 2, driver.count(domain.KindWriteState))

		driver.echo()
		synctest.Wait()
		assert.Equal(t, 0, m.Writers().Pending(name("lamp")))

		statuses, err = m.Scheduler().Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DeviceFree, statuses[0].State)

		cancel()
		require.NoError(t, <-done)
	})
}

func TestManager_BodyResolutionFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer, _ := quietTracer(ctrl)
	bodies := mocks.NewMockBodyFactory(ctrl)
	bodies.EXPECT().Body(gomock.Any()).Return(nil, errors.New("no such body"))

	_, err := execution.NewManager(mirrorConfig(t), newEchoDriver(nil), bodies, tracer, mocks.NewMockLogger(ctrl))
	require.ErrorContains(t, err, "no such body")
}
