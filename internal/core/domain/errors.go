package domain

import "go.trai.ch/zerr"

var (
	// ErrDeviceNotFound is returned when a task or message references a device missing from the configuration.
	ErrDeviceNotFound = zerr.New("device not found")

	// ErrTaskNotFound is returned when a task or message references a task missing from the configuration.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrDeviceAlreadyExists is returned when attempting to add a device with a name that already exists.
	ErrDeviceAlreadyExists = zerr.New("device already exists")

	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrInvalidTaskName is returned when a task or device name contains invalid characters.
	ErrInvalidTaskName = zerr.New("invalid name, expected alphanumeric characters, hyphens and underscores")

	// ErrInvalidTriggerRule is returned when a trigger rule is empty or names a device the task does not read.
	ErrInvalidTriggerRule = zerr.New("invalid trigger rule")

	// ErrInvalidOverwrite is returned when a write binding names an unknown overwrite policy.
	ErrInvalidOverwrite = zerr.New("invalid overwrite policy, expected 'discard', 'current' or 'clear'")

	// ErrDuplicateTrigger is returned when two triggers of one task share an id.
	ErrDuplicateTrigger = zerr.New("duplicate trigger id")

	// ErrTriggerNotFound is returned when enabling or disabling a trigger id the task does not define.
	ErrTriggerNotFound = zerr.New("trigger not found")

	// ErrDeviceNotBound is returned when a state update reaches a task that does not bind the device.
	ErrDeviceNotBound = zerr.New("device not bound to task")

	// ErrRequestInFlight is returned when a task requests ownership while a previous request is unfinished.
	ErrRequestInFlight = zerr.New("ownership request already in flight")

	// ErrRequestWithdrawn is returned when a pending ownership request is cancelled before completion.
	ErrRequestWithdrawn = zerr.New("ownership request withdrawn")

	// ErrNotOwner is returned when a task releases devices it does not own.
	ErrNotOwner = zerr.New("task does not own its devices")

	// ErrStaleHandshake is returned when a grant or confirmation arrives for a claim that is not mid-handshake.
	ErrStaleHandshake = zerr.New("stale handshake message")

	// ErrUnknownMessage is returned when a message kind cannot be routed.
	ErrUnknownMessage = zerr.New("unknown message kind")

	// ErrSchedulerStopped is returned when calling into a scheduler whose loop has exited.
	ErrSchedulerStopped = zerr.New("scheduler stopped")

	// ErrBodyOutputMismatch is returned when a task body returns a vector of the wrong length.
	ErrBodyOutputMismatch = zerr.New("task body returned wrong number of values")

	// ErrBodyNotFound is returned when a task names a body kind that is not registered.
	ErrBodyNotFound = zerr.New("task body not found")

	// ErrInvalidBodyArgs is returned when a body's arguments do not match the task bindings.
	ErrInvalidBodyArgs = zerr.New("invalid task body arguments")

	// ErrConfigNotFound is returned when no configuration file can be found.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read configuration file")

	// ErrConfigParseFailed is returned when the configuration file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse configuration file")

	// ErrInvalidDuration is returned when a duration field cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrUnknownDriver is returned when the configuration selects a driver that does not exist.
	ErrUnknownDriver = zerr.New("unknown driver, expected 'loopback' or 'file'")

	// ErrDriverFailed is returned when a device driver stops with an error.
	ErrDriverFailed = zerr.New("device driver failed")

	// ErrSystemFailed is returned when the execution manager stops with an error.
	ErrSystemFailed = zerr.New("system execution failed")
)
