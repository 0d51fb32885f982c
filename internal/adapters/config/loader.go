// Package config provides the configuration loader for blueshift.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds blueshift.yaml in cwd or the nearest parent directory and loads it.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	path, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(path)
}

// LoadFile reads and validates the descriptor at path.
func (l *Loader) LoadFile(path string) (*domain.Config, error) {
	var file Blueshift
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	cfg, err := l.build(path, &file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) build(path string, file *Blueshift) (*domain.Config, error) {
	cfg := domain.NewConfig()
	cfg.Root = resolveRoot(path, file.Root)
	cfg.MaxPending = file.MaxPending

	var err error
	if cfg.RequestTimeout, err = parseDuration("requestTimeout", file.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.Driver, err = buildDriver(cfg.Root, file.Driver); err != nil {
		return nil, err
	}

	for _, name := range sortedKeys(file.Devices) {
		dev, err := buildDevice(name, file.Devices[name])
		if err != nil {
			return nil, err
		}
		if err := cfg.AddDevice(dev); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(file.Tasks) {
		if err := cfg.AddTask(buildTask(name, file.Tasks[name])); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for dev := range cfg.Devices() {
		if len(cfg.Bound(dev.Name)) == 0 {
			l.Logger.Warn(fmt.Sprintf("device %q is not bound to any task", dev.Name))
		}
	}
	for task := range cfg.Tasks() {
		if len(task.Inputs()) == 0 {
			l.Logger.Warn(fmt.Sprintf("task %q reads no driver device and will never run", task.Name))
		}
	}

	return cfg, nil
}

func buildDriver(root string, dto DriverDTO) (domain.DriverSpec, error) {
	spec := domain.DriverSpec{Kind: dto.Kind, Dir: dto.Dir}
	switch spec.Kind {
	case "":
		spec.Kind = domain.DriverLoopback
	case domain.DriverLoopback, domain.DriverFile:
	default:
		return spec, zerr.With(domain.ErrUnknownDriver, "driver", dto.Kind)
	}

	if spec.Dir == "" {
		spec.Dir = domain.DefaultDeviceDir
	}
	if !filepath.IsAbs(spec.Dir) {
		spec.Dir = filepath.Join(root, spec.Dir)
	}

	var err error
	if spec.Poll, err = parseDuration("driver.poll", dto.Poll); err != nil {
		return spec, err
	}
	if spec.Debounce, err = parseDuration("driver.debounce", dto.Debounce); err != nil {
		return spec, err
	}
	return spec, nil
}

func buildDevice(name string, dto *DeviceDTO) (*domain.Device, error) {
	if dto == nil {
		dto = &DeviceDTO{}
	}

	poll, err := parseDuration("poll", dto.Poll)
	if err != nil {
		return nil, zerr.With(err, "device", name)
	}

	kind := domain.DeviceKind(dto.Kind)
	if kind == "" {
		kind = domain.KindInterrupt
		if poll > 0 {
			kind = domain.KindPolling
		}
	}

	return &domain.Device{
		Name:       domain.NewInternedString(name),
		Kind:       kind,
		Controller: dto.Controller,
		Initial:    dto.Initial,
		Virtual:    dto.Virtual,
		PollPeriod: poll,
	}, nil
}

// buildTask lays bindings out reads first, in order, then writes. A device that is
// both read and written gets a single binding.
func buildTask(name string, dto *TaskDTO) *domain.Task {
	if dto == nil {
		dto = &TaskDTO{}
	}

	task := &domain.Task{
		Name:     domain.NewInternedString(name),
		Priority: dto.Priority,
		Body:     domain.BodySpec{Kind: dto.Body.Kind, Args: dto.Body.Args},
	}

	index := make(map[string]int, len(dto.Reads)+len(dto.Writes))
	for _, r := range dto.Reads {
		if _, dup := index[r.Device]; dup {
			continue
		}
		index[r.Device] = len(task.Bindings)
		task.Bindings = append(task.Bindings, domain.Binding{
			Device:           domain.NewInternedString(r.Device),
			Read:             true,
			DropRead:         r.DropRead,
			IgnoreWriteBacks: r.IgnoreWriteBacks,
		})
	}
	for _, w := range dto.Writes {
		i, ok := index[w.Device]
		if !ok {
			i = len(task.Bindings)
			index[w.Device] = i
			task.Bindings = append(task.Bindings, domain.Binding{Device: domain.NewInternedString(w.Device)})
		}
		b := &task.Bindings[i]
		b.Write = true
		b.Overwrite = domain.OverwritePolicy(w.Overwrite)
		b.NoYield = w.Yield != nil && !*w.Yield
	}

	for _, tr := range dto.Triggers {
		task.Triggers = append(task.Triggers, domain.TriggerRule{
			ID:       tr.ID,
			Devices:  domain.NewInternedStrings(tr.Rule),
			Priority: tr.Priority,
		})
	}

	return task
}

func resolveRoot(configPath, root string) string {
	base := filepath.Dir(configPath)
	if root == "" {
		return base
	}
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(base, root)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, zerr.With(zerr.With(domain.ErrInvalidDuration, "field", field), "value", value)
	}
	return d, nil
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	data, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
