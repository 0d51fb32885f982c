// Package statebox buffers device state between the driver and the tasks: inbound values
// per task until the task runs, and outbound writes per device until the device echoes them.
package statebox

import "go.trai.ch/blueshift/internal/core/domain"

// DeviceStateBox buffers the values of one device for one task.
// With drop-read set at most one unread value is kept; otherwise unread values queue.
type DeviceStateBox struct {
	device           domain.InternedString
	read             bool
	dropRead         bool
	ignoreWriteBacks bool
	initial          domain.Value

	unread  []domain.Value
	last    domain.Value
	hasLast bool
}

func newDeviceStateBox(b domain.Binding) *DeviceStateBox {
	return &DeviceStateBox{
		device:           b.Device,
		read:             b.Read,
		dropRead:         b.DropRead,
		ignoreWriteBacks: b.IgnoreWriteBacks,
		initial:          b.Initial,
	}
}

// Insert stores v as the last-seen value and, for read bindings, as unread.
func (d *DeviceStateBox) Insert(v domain.Value) {
	d.last = v
	d.hasLast = true
	if !d.read {
		return
	}
	if d.dropRead {
		d.unread = d.unread[:0]
	}
	d.unread = append(d.unread, v)
}

// Take returns the oldest unread value, consuming it, or the last-seen value, or the device's initial value.
func (d *DeviceStateBox) Take() domain.Value {
	if len(d.unread) > 0 {
		v := d.unread[0]
		d.unread[0] = nil
		d.unread = d.unread[1:]
		return v
	}
	if d.hasLast {
		return d.last
	}
	return d.initial
}

// Unread returns the number of buffered unread values.
func (d *DeviceStateBox) Unread() int {
	return len(d.unread)
}
