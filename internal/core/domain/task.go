package domain

import "slices"

const (
	// DefaultTriggerPriority is the priority of the initial and all-inputs triggers.
	DefaultTriggerPriority = 1
	// InitialTriggerID names the trigger that fires once every input has reported for the first time.
	InitialTriggerID = "initial"
	// AllInputsTriggerID names the implicit rule requiring every input to refresh.
	AllInputsTriggerID = "all"
	// DefaultMaxPending bounds the fired events a task keeps while it is busy.
	DefaultMaxPending = 10
)

// OverwritePolicy decides what a write does when the device still has writes in flight.
type OverwritePolicy string

const (
	// OverwriteQueue queues the write behind the pending ones.
	OverwriteQueue OverwritePolicy = ""
	// OverwriteDiscard drops the write.
	OverwriteDiscard OverwritePolicy = "discard"
	// OverwriteCurrent replaces every queued write with this one.
	OverwriteCurrent OverwritePolicy = "current"
	// OverwriteClear queues the write, and drops the writes a previous owner left queued
	// when the task takes the device over without yielding.
	OverwriteClear OverwritePolicy = "clear"
)

// Valid reports whether p is a known policy.
func (p OverwritePolicy) Valid() bool {
	switch p {
	case OverwriteQueue, OverwriteDiscard, OverwriteCurrent, OverwriteClear:
		return true
	}
	return false
}

// Binding ties a task to one device.
type Binding struct {
	Device           InternedString
	Read             bool
	Write            bool
	DropRead         bool
	IgnoreWriteBacks bool

	// Overwrite applies to the task's own writes on the device.
	Overwrite OverwritePolicy
	// NoYield lets the task's ownership confirmation go out as soon as the write in
	// flight is acknowledged, instead of waiting for the previous owner's queue to drain.
	NoYield bool

	// Virtual and Initial are copied from the device during Config.Validate.
	Virtual bool
	Initial Value
}

// TriggerRule fires a task once every listed device has refreshed since the last fire.
type TriggerRule struct {
	ID       string
	Devices  []InternedString
	Priority int
}

// BodySpec selects the task body implementation.
type BodySpec struct {
	Kind string
	Args map[string]any
}

// Task is a unit of execution bound to a set of input and output devices.
type Task struct {
	Name     InternedString
	Priority int
	Bindings []Binding
	Triggers []TriggerRule
	Body     BodySpec
}

// MustOwn returns the devices the task must own to write, sorted by name.
// Virtual devices are included; the scheduler answers their handshake itself.
func (t *Task) MustOwn() []InternedString {
	var out []InternedString
	for _, b := range t.Bindings {
		if b.Write {
			out = append(out, b.Device)
		}
	}
	return SortedInterned(out)
}

// Inputs returns the non-virtual devices the task reads, in binding order.
func (t *Task) Inputs() []InternedString {
	var out []InternedString
	for _, b := range t.Bindings {
		if b.Read && !b.Virtual {
			out = append(out, b.Device)
		}
	}
	return out
}

// Binding returns the binding for device and its position in the snapshot vector.
func (t *Task) Binding(device InternedString) (Binding, int, bool) {
	i := slices.IndexFunc(t.Bindings, func(b Binding) bool { return b.Device == device })
	if i < 0 {
		return Binding{}, -1, false
	}
	return t.Bindings[i], i, true
}

// Reads reports whether the task reads device.
func (t *Task) Reads(device InternedString) bool {
	b, _, ok := t.Binding(device)
	return ok && b.Read
}
