package loopback

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
)

// NodeID is the unique identifier for the loopback driver Graft node.
const NodeID graft.ID = "adapter.driver.loopback"

// Factory builds loopback drivers.
type Factory struct{}

// Driver implements ports.DriverFactory.
func (Factory) Driver(cfg *domain.Config) (ports.Driver, error) {
	return New(cfg), nil
}

func init() {
	graft.Register(graft.Node[Factory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Factory, error) {
			return Factory{}, nil
		},
	})
}
