package pipeline

import (
	"fmt"
	"time"
)

// Default engine tunables.
const (
	DefaultName           = "parse_plaintext"
	DefaultQueueCapacity  = 5
	DefaultWatermark      = 5
	DefaultLargeWatermark = 8
	DefaultMaxChar        = 15000
	DefaultPollInterval   = 100 * time.Millisecond
)

// Config configures an Engine.
type Config struct {
	// SpecFile is the YAML file mapping pipeline names to stage lists.
	SpecFile string `yaml:"spec_file" mapstructure:"spec_file"`
	// Name selects the pipeline inside SpecFile.
	Name          string `yaml:"name" mapstructure:"name"`
	QueueCapacity int    `yaml:"queue_capacity" mapstructure:"queue_capacity"`
	// Watermark bounds unclaimed single jobs accepted by Parse.
	Watermark int `yaml:"watermark" mapstructure:"watermark"`
	// LargeWatermark bounds unclaimed jobs including the chunks of a large input.
	LargeWatermark int `yaml:"large_watermark" mapstructure:"large_watermark"`
	// MaxChar is the chunk size in bytes.
	MaxChar      int           `yaml:"max_char" mapstructure:"max_char"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	// ChunkLargeInputs enables large-job submission; defaults to true.
	ChunkLargeInputs *bool `yaml:"chunk_large_inputs" mapstructure:"chunk_large_inputs"`
	// ExtraArgs appends "--flag=value" to a stage, keyed "stage.flag".
	ExtraArgs map[string]string `yaml:"extra_args" mapstructure:"extra_args"`
	// LockFile, when set, guards the host against a second instance.
	LockFile string `yaml:"lock_file" mapstructure:"lock_file"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.Watermark == 0 {
		c.Watermark = DefaultWatermark
	}
	if c.LargeWatermark == 0 {
		c.LargeWatermark = DefaultLargeWatermark
	}
	if c.MaxChar == 0 {
		c.MaxChar = DefaultMaxChar
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ChunkLargeInputs == nil {
		enabled := true
		c.ChunkLargeInputs = &enabled
	}
}

// Chunking reports whether large inputs are accepted.
func (c *Config) Chunking() bool {
	return c.ChunkLargeInputs == nil || *c.ChunkLargeInputs
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if c.QueueCapacity < 1 {
		return fmt.Errorf("pipeline.queue_capacity must be positive (got: %d)", c.QueueCapacity)
	}
	if c.Watermark < 1 {
		return fmt.Errorf("pipeline.watermark must be positive (got: %d)", c.Watermark)
	}
	if c.LargeWatermark < c.Watermark {
		return fmt.Errorf("pipeline.large_watermark must be >= watermark (got: %d < %d)", c.LargeWatermark, c.Watermark)
	}
	if c.MaxChar < 1 {
		return fmt.Errorf("pipeline.max_char must be positive (got: %d)", c.MaxChar)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("pipeline.poll_interval must not be negative")
	}
	return nil
}
