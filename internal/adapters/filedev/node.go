package filedev

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blueshift/internal/adapters/logger"
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
)

// NodeID is the unique identifier for the file driver Graft node.
const NodeID graft.ID = "adapter.driver.file"

// Factory builds file drivers.
type Factory struct {
	Logger ports.Logger
}

// Driver implements ports.DriverFactory.
func (f *Factory) Driver(cfg *domain.Config) (ports.Driver, error) {
	d, err := New(cfg, f.Logger)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Factory{Logger: log}, nil
		},
	})
}
