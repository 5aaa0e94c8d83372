// Package logger provides structured logging for annotpipe using zerolog.
//
// It supports JSON and console output, an "auto" format that picks console
// output when stdout is a terminal, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "auto"
//
// # Usage
//
//	log := logger.WithComponent("pipeline")
//	log.Info("job submitted", logger.Fields(logger.FieldJobID, id))
package logger
