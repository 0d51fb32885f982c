// Package app implements the application layer for blueshift.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.trai.ch/blueshift/internal/adapters/detector"
	"go.trai.ch/blueshift/internal/adapters/telemetry"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/blueshift/internal/engine/execution"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

type formatSwitcher interface {
	SetJSON(enable bool)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
	bodies       ports.BodyFactory
	drivers      map[string]ports.DriverFactory
}

// New creates a new App instance. drivers maps a driver kind to its factory.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	tracer ports.Tracer,
	bodies ports.BodyFactory,
	drivers map[string]ports.DriverFactory,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
		bodies:       bodies,
		drivers:      drivers,
	}
}

// LoadOptions selects the configuration file.
type LoadOptions struct {
	// ConfigPath is an explicit configuration file. Empty means discovery from the working directory.
	ConfigPath string
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	LoadOptions
	Driver    string
	LogFormat string
	NoTrace   bool
}

// Run loads the configuration and runs every task against the selected driver until ctx is cancelled.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	a.configureLogger(opts.LogFormat)

	cfg, err := a.load(opts.LoadOptions)
	if err != nil {
		return err
	}

	kind := cfg.Driver.Kind
	if opts.Driver != "" {
		kind = opts.Driver
	}
	factory, ok := a.drivers[kind]
	if !ok {
		return zerr.With(domain.ErrUnknownDriver, "driver", kind)
	}
	driver, err := factory.Driver(cfg)
	if err != nil {
		return zerr.Wrap(err, "failed to create driver")
	}

	tracer := a.tracer
	if opts.NoTrace {
		tracer = telemetry.NewNoOpTracer()
	}
	if s, ok := a.tracer.(shutdowner); ok {
		defer func() {
			_ = s.Shutdown(context.WithoutCancel(ctx))
		}()
	}

	manager, err := execution.NewManager(cfg, driver, a.bodies, tracer, a.logger)
	if err != nil {
		return zerr.Wrap(err, "failed to build tasks")
	}

	a.logger.Info(fmt.Sprintf("running %d tasks on %d devices with the %s driver",
		cfg.TaskCount(), cfg.DeviceCount(), kind))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := driver.Start(ctx); err != nil {
			return errors.Join(domain.ErrDriverFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := manager.Run(ctx); err != nil {
			return errors.Join(domain.ErrSystemFailed, err)
		}
		return nil
	})

	return g.Wait()
}

// Validate loads and validates the configuration without running anything.
func (a *App) Validate(_ context.Context, opts LoadOptions) error {
	cfg, err := a.load(opts)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("configuration valid: %d devices, %d tasks", cfg.DeviceCount(), cfg.TaskCount()))
	return nil
}

// Plan loads the configuration and prints its devices, writers and tasks to w.
func (a *App) Plan(_ context.Context, w io.Writer, opts LoadOptions) error {
	cfg, err := a.load(opts)
	if err != nil {
		return err
	}
	return renderPlan(w, cfg)
}

func (a *App) load(opts LoadOptions) (*domain.Config, error) {
	var (
		cfg *domain.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = a.configLoader.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = a.configLoader.Load(".")
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

func (a *App) configureLogger(flag string) {
	s, ok := a.logger.(formatSwitcher)
	if !ok {
		return
	}
	format := detector.ResolveFormat(detector.DetectEnvironment(), flag)
	s.SetJSON(format == detector.FormatJSON)
}
