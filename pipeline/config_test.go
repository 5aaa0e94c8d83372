package pipeline

import (
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Name != "parse_plaintext" || c.QueueCapacity != 5 || c.Watermark != 5 ||
		c.LargeWatermark != 8 || c.MaxChar != 15000 || c.PollInterval != 100*time.Millisecond {
		t.Errorf("unexpected defaults %+v", c)
	}
	if !c.Chunking() {
		t.Error("chunking should default to enabled")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	disabled := false
	c = Config{ChunkLargeInputs: &disabled}
	c.ApplyDefaults()
	if c.Chunking() {
		t.Error("explicitly disabled chunking was re-enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative capacity", func(c *Config) { c.QueueCapacity = -1 }},
		{"negative watermark", func(c *Config) { c.Watermark = -1 }},
		{"large below watermark", func(c *Config) { c.LargeWatermark = 2 }},
		{"negative max char", func(c *Config) { c.MaxChar = -5 }},
		{"negative poll", func(c *Config) { c.PollInterval = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.ApplyDefaults()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
