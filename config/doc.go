// Package config loads the annotpipe service configuration.
//
// Values come from a YAML file (config.yml in the usual locations, or an
// explicit path), then a .env file, then the process environment. Nested
// keys map from upper snake case, so PIPELINE_WATERMARK=7 sets
// pipeline.watermark. The TNPP_* variables of earlier deployments are
// honoured as aliases.
//
//	cfg, err := config.Load(config.WithConfigFile("config.yml"))
package config
