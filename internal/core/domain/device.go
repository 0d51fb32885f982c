package domain

import "time"

// DeviceKind describes how a device's driver produces state.
type DeviceKind string

const (
	// KindPolling devices are sampled by their driver at a fixed period.
	KindPolling DeviceKind = "polling"
	// KindInterrupt devices report state only when it changes.
	KindInterrupt DeviceKind = "interrupt"
	// KindActuator devices are only written to.
	KindActuator DeviceKind = "actuator"
)

// Device is a named endpoint whose state flows through the system.
type Device struct {
	Name       InternedString
	Kind       DeviceKind
	Controller string
	Initial    Value

	// Virtual devices live inside the system; they are never arbitrated and never trigger tasks.
	Virtual    bool
	PollPeriod time.Duration
}

// DeviceState is the ownership state of an arbitrated device.
type DeviceState string

const (
	// DeviceFree indicates no task owns the device and no claim is being handshaken.
	DeviceFree DeviceState = "FREE"
	// DeviceLoaded indicates a claim has been offered and awaits confirmation.
	DeviceLoaded DeviceState = "LOADED"
	// DeviceOwned indicates a task holds write ownership.
	DeviceOwned DeviceState = "OWNED"
)
