package execution

import (
	"context"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/engine/scheduler"
	"go.trai.ch/blueshift/internal/engine/statebox"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Manager wires the scheduler, the dispatcher, the device writers and one Unit per task
// for a configuration. Writes and confirmations reach the driver through the writers.
type Manager struct {
	cfg        *domain.Config
	driver     ports.Driver
	logger     ports.Logger
	scheduler  *scheduler.Scheduler
	dispatcher *Dispatcher
	writers    *statebox.Writers
	units      []*Unit
}

// NewManager builds everything needed to run cfg against driver. It fails if a task's body
// cannot be resolved.
func NewManager(
	cfg *domain.Config,
	driver ports.Driver,
	bodies ports.BodyFactory,
	tracer ports.Tracer,
	logger ports.Logger,
) (*Manager, error) {
	writers := statebox.NewWriters(cfg, driver)
	sched := scheduler.NewScheduler(cfg, writers, logger)
	boxes := make(map[domain.InternedString]*statebox.ReaderBox, cfg.TaskCount())
	for task := range cfg.Tasks() {
		boxes[task.Name] = statebox.NewReaderBox(task, cfg.MaxPending, logger)
	}
	dispatcher := NewDispatcher(cfg, boxes, sched, writers, logger)

	m := &Manager{
		cfg:        cfg,
		driver:     driver,
		logger:     logger,
		scheduler:  sched,
		dispatcher: dispatcher,
		writers:    writers,
	}

	for task := range cfg.Tasks() {
		body, err := bodies.Body(task)
		if err != nil {
			return nil, zerr.With(err, "task", task.Name.String())
		}
		m.units = append(m.units, NewUnit(UnitConfig{
			Task:    task,
			Box:     boxes[task.Name],
			Arbiter: sched,
			Sender:  writers,
			Local: func(msg domain.Message) {
				dispatcher.Route(context.Background(), msg)
			},
			Body:    body,
			Tracer:  tracer,
			Logger:  logger,
			Timeout: cfg.RequestTimeout,
		}))
	}

	return m, nil
}

// Scheduler returns the scheduler arbitrating device ownership.
func (m *Manager) Scheduler() *scheduler.Scheduler {
	return m.scheduler
}

// Writers returns the per-device writers between the tasks and the driver.
func (m *Manager) Writers() *statebox.Writers {
	return m.writers
}

// Run runs every task until ctx is cancelled. On start it asks the driver to publish
// the current state of every task's devices.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.scheduler.Run(ctx)
	})
	g.Go(func() error {
		return m.dispatcher.Run(ctx, m.driver.Inbound())
	})
	for _, u := range m.units {
		g.Go(func() error {
			return u.Run(ctx)
		})
	}

	for task := range m.cfg.Tasks() {
		if err := m.driver.Send(ctx, domain.Message{Kind: domain.KindRequestStates, Task: task.Name}); err != nil {
			m.logger.Error(zerr.With(err, "task", task.Name.String()))
		}
	}

	return g.Wait()
}
