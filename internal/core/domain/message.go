package domain

import (
	"fmt"
	"strings"
)

// MessageKind identifies the protocol step a Message carries.
type MessageKind string

// Outbound kinds, produced by the core.
const (
	// KindOwnershipOffer tells the device owner that a task may take the device, pending confirmation.
	KindOwnershipOffer MessageKind = "OWNERSHIP_OFFER"
	// KindConfirm finalizes an ownership transfer.
	KindConfirm MessageKind = "CONFIRM"
	// KindRelease tells the device owner the device is free.
	KindRelease MessageKind = "RELEASE"
	// KindRequestConcluded signals a request that needed no ownership at all.
	KindRequestConcluded MessageKind = "REQUEST_CONCLUDED"
	// KindWriteState carries a value a task body produced for one of its output devices.
	KindWriteState MessageKind = "WRITE_STATE"
	// KindProcessExec signals a task has started running its body.
	KindProcessExec MessageKind = "PROCESS_EXEC"
	// KindRequestStates asks drivers to publish the current state of a task's devices.
	KindRequestStates MessageKind = "REQUEST_STATES"
)

// Inbound kinds, consumed by the core.
const (
	// KindGrant is the device owner accepting an offer.
	KindGrant MessageKind = "GRANT"
	// KindConfirmOK acknowledges the device-side state is ready.
	KindConfirmOK MessageKind = "CONFIRM_OK"
	// KindState carries a fresh device value.
	KindState MessageKind = "STATE"
	// KindEnableTrigger re-enables a task trigger rule by id.
	KindEnableTrigger MessageKind = "ENABLE_TRIGGER"
	// KindDisableTrigger disables a task trigger rule by id.
	KindDisableTrigger MessageKind = "DISABLE_TRIGGER"
)

// Message is the unit exchanged between the core and its transport.
// For KindState, Task names the task whose write produced the value, if any.
type Message struct {
	Kind     MessageKind
	Task     InternedString
	Device   InternedString
	Priority int
	Value    Value
	Trigger  string
}

// String renders the message for logs.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(string(m.Kind))
	b.WriteByte('(')
	parts := make([]string, 0, 3)
	if !m.Task.IsZero() {
		parts = append(parts, "task="+m.Task.String())
	}
	if !m.Device.IsZero() {
		parts = append(parts, "device="+m.Device.String())
	}
	if m.Trigger != "" {
		parts = append(parts, "trigger="+m.Trigger)
	}
	if m.Kind == KindOwnershipOffer || m.Kind == KindGrant {
		parts = append(parts, fmt.Sprintf("priority=%d", m.Priority))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte(')')
	return b.String()
}
