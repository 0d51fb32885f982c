package filedev

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/blueshift/internal/core/domain"
)

// Debouncer turns file events in the device directory into device refreshes.
// Events for one device within the window collapse into a single refresh. Every device
// has its own window, so a file that keeps changing does not hold back the others.
type Debouncer struct {
	mu       sync.Mutex
	cfg      *domain.Config
	window   time.Duration
	due      map[domain.InternedString]time.Time
	timer    *time.Timer
	callback func(devices []domain.InternedString)
}

// NewDebouncer creates a debouncer for the devices of cfg. callback receives the devices
// whose window elapsed, sorted by name.
func NewDebouncer(cfg *domain.Config, window time.Duration, callback func(devices []domain.InternedString)) *Debouncer {
	return &Debouncer{
		cfg:      cfg,
		window:   window,
		due:      make(map[domain.InternedString]time.Time),
		callback: callback,
	}
}

// Add resolves path to a device and restarts that device's window. It returns the
// name the file stands for and whether the driver serves such a device. Editor
// temporaries and other non-device files yield an empty name.
func (d *Debouncer) Add(path string) (string, bool) {
	name, ok := deviceName(path)
	if !ok {
		return "", false
	}
	device := domain.NewInternedString(name)
	if dev, known := d.cfg.Device(device); !known || dev.Virtual {
		return name, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.due[device] = time.Now().Add(d.window)
	d.schedule()
	return name, true
}

// Flush refreshes every pending device now. It blocks until the callback returns.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	devices := make([]domain.InternedString, 0, len(d.due))
	for dev := range d.due {
		devices = append(devices, dev)
	}
	clear(d.due)
	d.mu.Unlock()

	if len(devices) > 0 {
		d.callback(domain.SortedInterned(devices))
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	now := time.Now()
	var ready []domain.InternedString
	for dev, at := range d.due {
		if !at.After(now) {
			ready = append(ready, dev)
			delete(d.due, dev)
		}
	}
	d.schedule()
	d.mu.Unlock()

	if len(ready) > 0 {
		d.callback(domain.SortedInterned(ready))
	}
}

// schedule arms the timer for the earliest deadline. d.mu must be held.
func (d *Debouncer) schedule() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var next time.Time
	for _, at := range d.due {
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	if next.IsZero() {
		return
	}
	d.timer = time.AfterFunc(time.Until(next), d.fire)
}

// deviceName returns the device a file in the device directory stands for.
// Hidden files are skipped so editor swap files never count as edits.
func deviceName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, fileExt) || strings.HasPrefix(base, ".") {
		return "", false
	}
	return strings.TrimSuffix(base, fileExt), true
}
