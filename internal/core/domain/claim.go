package domain

// ClaimState is the lifecycle state of a Claim.
type ClaimState string

const (
	// ClaimWaiting indicates the claim sits in a device wait queue.
	ClaimWaiting ClaimState = "Waiting"
	// ClaimLoaded indicates the claim occupies the device's loaded slot.
	ClaimLoaded ClaimState = "Loaded"
	// ClaimOwned indicates the handshake finished and the task owns the device.
	ClaimOwned ClaimState = "Owned"
)

// Claim is a task's bid for ownership of one device.
type Claim struct {
	Task     InternedString
	Device   InternedString
	Priority int
	State    ClaimState
}
