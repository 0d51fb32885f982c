// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/blueshift/internal/core/domain"
)

// Sender delivers outbound protocol messages to the device side.
//
//go:generate mockgen -source=sender.go -destination=mocks/mock_sender.go -package=mocks
type Sender interface {
	// Send hands msg to the transport. It must not block on the receiving side
	// processing the message, since the scheduler calls it from its loop.
	Send(ctx context.Context, msg domain.Message) error
}
