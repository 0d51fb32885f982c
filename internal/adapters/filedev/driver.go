// Package filedev implements a device driver backed by one YAML file per device.
// External edits to a device file are published as state updates; writes from
// tasks are stored in the file.
package filedev

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/blueshift/internal/adapters/loopback"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the coalescing window used when the configuration sets none.
const DefaultDebounce = 50 * time.Millisecond

// Driver implements ports.Driver. The ownership handshake is answered like the loopback driver.
type Driver struct {
	*loopback.Driver

	cfg      *domain.Config
	store    *FileStore
	debounce time.Duration
	logger   ports.Logger
}

// New creates a file driver serving cfg.Driver.Dir.
func New(cfg *domain.Config, logger ports.Logger) (*Driver, error) {
	store, err := NewFileStore(cfg, cfg.Driver.Dir)
	if err != nil {
		return nil, err
	}

	debounce := cfg.Driver.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Driver{
		Driver:   loopback.NewWithStore(cfg, store),
		cfg:      cfg,
		store:    store,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Start watches the device directory and serves the handshake until ctx is cancelled.
func (d *Driver) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, "failed to create device watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(d.store.Dir()); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch device directory"), "dir", d.store.Dir())
	}

	debouncer := NewDebouncer(d.cfg, d.debounce, d.refresh)
	defer debouncer.Flush()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.Driver.Start(ctx)
	})
	g.Go(func() error {
		return d.watch(ctx, watcher, debouncer)
	})
	return g.Wait()
}

func (d *Driver) watch(ctx context.Context, watcher *fsnotify.Watcher, debouncer *Debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if name, ok := debouncer.Add(event.Name); !ok && name != "" {
				d.logger.Warn(fmt.Sprintf("ignoring file for unknown device %q", name))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Error(zerr.Wrap(err, "device watcher error"))
		}
	}
}

// refresh publishes devices whose file content changed since this driver last wrote it.
func (d *Driver) refresh(devices []domain.InternedString) {
	for _, device := range devices {
		_, changed, err := d.store.Changed(device)
		if err != nil {
			d.logger.Error(err)
			continue
		}
		if changed {
			d.Publish(device)
		}
	}
}
