package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/annotpipe/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option configures NewApp.
type Option func(*settings)

type settings struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	summaryOut      io.Writer
	quiet           bool
}

func newSettings(opts []Option) settings {
	s := settings{gracefulTimeout: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger replaces the logger built from the logging config section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithGracefulTimeout bounds the whole shutdown; d <= 0 is ignored.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.gracefulTimeout = d
		}
	}
}

// WithSummaryOutput writes the startup summary to w instead of stdout.
func WithSummaryOutput(w io.Writer) Option {
	return func(s *settings) { s.summaryOut = w }
}

// WithoutSummary suppresses the startup summary, e.g. for `annotpipe parse`.
func WithoutSummary() Option {
	return func(s *settings) { s.quiet = true }
}
