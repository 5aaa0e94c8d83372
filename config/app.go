package config

import (
	"fmt"

	"github.com/kbukum/annotpipe/observability"
	"github.com/kbukum/annotpipe/pipeline"
	"github.com/kbukum/annotpipe/server"
)

// AppConfig is the complete annotpipe configuration.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline      pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	return nil
}

// Load reads, defaults and validates the service configuration.
func Load(opts ...LoaderOption) (*AppConfig, error) {
	var cfg AppConfig
	if err := LoadConfig("annotpipe", &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
