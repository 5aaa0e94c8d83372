package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kbukum/annotpipe/config"
)

// commandContext carries the persistent flags and the lazily loaded
// configuration shared by subcommands.
type commandContext struct {
	configFile string
	envFile    string
	specFile   string
	pipeline   string

	configOnce sync.Once
	config     *config.AppConfig
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = c.load()
	})
	return c.config, c.configErr
}

func (c *commandContext) load() (*config.AppConfig, error) {
	var opts []config.LoaderOption
	if path := strings.TrimSpace(c.configFile); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts = append(opts, config.WithConfigFile(path))
	}
	if path := strings.TrimSpace(c.envFile); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if c.specFile != "" {
		cfg.Pipeline.SpecFile = c.specFile
	}
	if c.pipeline != "" {
		cfg.Pipeline.Name = c.pipeline
	}
	return cfg, nil
}
