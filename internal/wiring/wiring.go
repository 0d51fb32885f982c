// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/blueshift/internal/adapters/body"
	_ "go.trai.ch/blueshift/internal/adapters/config"
	_ "go.trai.ch/blueshift/internal/adapters/filedev"
	_ "go.trai.ch/blueshift/internal/adapters/logger"
	_ "go.trai.ch/blueshift/internal/adapters/loopback"
	_ "go.trai.ch/blueshift/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/blueshift/internal/app"
)
