package ports

import (
	"context"

	"go.trai.ch/blueshift/internal/core/domain"
)

// Driver is the device side of the protocol: it answers ownership messages,
// applies writes and publishes device state.
//
//go:generate mockgen -source=driver.go -destination=mocks/mock_driver.go -package=mocks
type Driver interface {
	Sender
	// Inbound returns the channel of messages addressed to the core.
	Inbound() <-chan domain.Message
	// Start runs the driver until ctx is cancelled.
	Start(ctx context.Context) error
}

// DriverFactory builds the driver for a loaded configuration.
type DriverFactory interface {
	Driver(cfg *domain.Config) (Driver, error)
}
