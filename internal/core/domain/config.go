package domain

import (
	"iter"
	"regexp"
	"slices"
	"time"

	"go.trai.ch/zerr"
)

var validNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// DriverSpec selects and configures the device driver.
type DriverSpec struct {
	Kind     string
	Dir      string
	Poll     time.Duration
	Debounce time.Duration
}

// Config is the static task/device configuration. It is built once at startup and read-only afterwards.
type Config struct {
	Root           string
	RequestTimeout time.Duration
	MaxPending     int
	Driver         DriverSpec

	devices     map[InternedString]Device
	tasks       map[InternedString]Task
	deviceOrder []InternedString
	taskOrder   []InternedString
	readers     map[InternedString][]InternedString
	writers     map[InternedString][]InternedString
	bound       map[InternedString][]InternedString
}

// NewConfig creates a new empty Config.
func NewConfig() *Config {
	return &Config{
		devices: make(map[InternedString]Device),
		tasks:   make(map[InternedString]Task),
		readers: make(map[InternedString][]InternedString),
		writers: make(map[InternedString][]InternedString),
		bound:   make(map[InternedString][]InternedString),
	}
}

// AddDevice adds a device to the configuration.
func (c *Config) AddDevice(d *Device) error {
	if err := ValidateName(d.Name.String()); err != nil {
		return err
	}
	if _, exists := c.devices[d.Name]; exists {
		return zerr.With(ErrDeviceAlreadyExists, "device", d.Name.String())
	}
	c.devices[d.Name] = *d
	c.deviceOrder = append(c.deviceOrder, d.Name)
	return nil
}

// AddTask adds a task to the configuration.
func (c *Config) AddTask(t *Task) error {
	if err := ValidateName(t.Name.String()); err != nil {
		return err
	}
	if _, exists := c.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task", t.Name.String())
	}
	c.tasks[t.Name] = *t
	c.taskOrder = append(c.taskOrder, t.Name)
	return nil
}

// ValidateName checks a task or device name.
func ValidateName(name string) error {
	if !validNameRegex.MatchString(name) {
		return zerr.With(ErrInvalidTaskName, "name", name)
	}
	return nil
}

// Validate resolves every binding and trigger against the device table
// and builds the reader/writer indexes. It must be called before the config is used.
func (c *Config) Validate() error {
	if c.MaxPending <= 0 {
		c.MaxPending = DefaultMaxPending
	}

	slices.SortFunc(c.deviceOrder, CompareInterned)
	slices.SortFunc(c.taskOrder, CompareInterned)
	clear(c.readers)
	clear(c.writers)
	clear(c.bound)

	for _, name := range c.taskOrder {
		task := c.tasks[name]
		if err := c.resolveBindings(&task); err != nil {
			return zerr.With(err, "task", name.String())
		}
		if err := validateTriggers(&task); err != nil {
			return zerr.With(err, "task", name.String())
		}
		c.tasks[name] = task
	}

	return nil
}

func (c *Config) resolveBindings(task *Task) error {
	for i := range task.Bindings {
		b := &task.Bindings[i]
		dev, ok := c.devices[b.Device]
		if !ok {
			return zerr.With(ErrDeviceNotFound, "device", b.Device.String())
		}
		if !b.Overwrite.Valid() {
			return zerr.With(zerr.With(ErrInvalidOverwrite, "device", b.Device.String()), "overwrite", string(b.Overwrite))
		}
		b.Virtual = dev.Virtual
		b.Initial = dev.Initial
		c.bound[b.Device] = append(c.bound[b.Device], task.Name)
		if b.Read {
			c.readers[b.Device] = append(c.readers[b.Device], task.Name)
		}
		if b.Write {
			c.writers[b.Device] = append(c.writers[b.Device], task.Name)
		}
	}
	return nil
}

func validateTriggers(task *Task) error {
	seen := make(map[string]bool, len(task.Triggers))
	for _, rule := range task.Triggers {
		if rule.ID == InitialTriggerID || rule.ID == AllInputsTriggerID || seen[rule.ID] {
			return zerr.With(ErrDuplicateTrigger, "trigger", rule.ID)
		}
		seen[rule.ID] = true

		if len(rule.Devices) == 0 {
			return zerr.With(ErrInvalidTriggerRule, "trigger", rule.ID)
		}
		for _, dev := range rule.Devices {
			b, _, ok := task.Binding(dev)
			if !ok || !b.Read || b.Virtual {
				return zerr.With(zerr.With(ErrInvalidTriggerRule, "trigger", rule.ID), "device", dev.String())
			}
		}
	}
	return nil
}

// Device returns the device with the given name.
func (c *Config) Device(name InternedString) (Device, bool) {
	d, ok := c.devices[name]
	return d, ok
}

// Task returns the task with the given name.
func (c *Config) Task(name InternedString) (Task, bool) {
	t, ok := c.tasks[name]
	return t, ok
}

// Devices returns an iterator over all devices, sorted by name after Validate.
func (c *Config) Devices() iter.Seq[Device] {
	return func(yield func(Device) bool) {
		for _, name := range c.deviceOrder {
			if !yield(c.devices[name]) {
				return
			}
		}
	}
}

// Tasks returns an iterator over all tasks, sorted by name after Validate.
func (c *Config) Tasks() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range c.taskOrder {
			if !yield(c.tasks[name]) {
				return
			}
		}
	}
}

// Readers returns the tasks that read device.
func (c *Config) Readers(device InternedString) []InternedString {
	return c.readers[device]
}

// Writers returns the tasks that must own device to write it.
func (c *Config) Writers(device InternedString) []InternedString {
	return c.writers[device]
}

// Bound returns every task with a binding on device.
func (c *Config) Bound(device InternedString) []InternedString {
	return c.bound[device]
}

// TaskCount returns the number of tasks.
func (c *Config) TaskCount() int {
	return len(c.tasks)
}

// DeviceCount returns the number of devices.
func (c *Config) DeviceCount() int {
	return len(c.devices)
}
