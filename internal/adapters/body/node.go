package body

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blueshift/internal/core/ports"
)

// NodeID is the unique identifier for the body registry Graft node.
const NodeID graft.ID = "adapter.body"

func init() {
	graft.Register(graft.Node[ports.BodyFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BodyFactory, error) {
			return NewRegistry(), nil
		},
	})
}
