package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/blueshift/internal/adapters/body"      //nolint:depguard // Wired in app layer
	"go.trai.ch/blueshift/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/blueshift/internal/adapters/filedev"   //nolint:depguard // Wired in app layer
	"go.trai.ch/blueshift/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/blueshift/internal/adapters/loopback"  //nolint:depguard // Wired in app layer
	"go.trai.ch/blueshift/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/blueshift/internal/core/domain"
	"go.trai.ch/blueshift/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized components the CLI layer needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			body.NodeID,
			loopback.NodeID,
			filedev.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[*telemetry.OTelTracer](ctx)
	if err != nil {
		return nil, err
	}

	bodies, err := graft.Dep[ports.BodyFactory](ctx)
	if err != nil {
		return nil, err
	}

	loop, err := graft.Dep[loopback.Factory](ctx)
	if err != nil {
		return nil, err
	}

	files, err := graft.Dep[*filedev.Factory](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, tracer, bodies, map[string]ports.DriverFactory{
		domain.DriverLoopback: loop,
		domain.DriverFile:     files,
	}), nil
}
