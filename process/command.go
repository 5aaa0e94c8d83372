package process

import (
	"strings"
	"time"
)

// DefaultGracePeriod is the delay between SIGTERM and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Command is one external annotation tool. It is run once per payload.
type Command struct {
	// Binary is an executable path or a name looked up in PATH.
	Binary string
	Args   []string
	Dir    string
	// Env entries (KEY=VALUE) are added to the parent environment.
	Env []string
	// Timeout bounds a single run; zero leaves it to the caller's context.
	Timeout     time.Duration
	GracePeriod time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

func (c Command) grace() time.Duration {
	if c.GracePeriod > 0 {
		return c.GracePeriod
	}
	return DefaultGracePeriod
}
