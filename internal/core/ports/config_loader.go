package ports

import "go.trai.ch/blueshift/internal/core/domain"

// ConfigLoader defines the interface for loading the device and task configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers the configuration file from the given working directory and returns the validated config.
	Load(cwd string) (*domain.Config, error)
	// LoadFile reads the configuration from an explicit path.
	LoadFile(path string) (*domain.Config, error)
}
