package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kbukum/annotpipe/component"
)

// Summary renders the startup summary.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary writing to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: os.Stdout}
}

// SetOutput redirects the summary.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display writes the header, a component table with live health and, when
// a component provides them, the HTTP routes.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	fmt.Fprintln(s.out, s.header())
	if registry == nil {
		fmt.Fprintln(s.out, "No components registered")
		return
	}

	health := make(map[string]component.Health)
	healthy := 0
	results := registry.HealthAll(ctx)
	for _, h := range results {
		health[h.Name] = h
		if h.Status == component.StatusHealthy {
			healthy++
		}
	}

	if components := registry.All(); len(components) > 0 {
		fmt.Fprintln(s.out, s.componentTable(components, health))
		fmt.Fprintf(s.out, "%d/%d components healthy\n", healthy, len(results))
	} else {
		fmt.Fprintln(s.out, "No components registered")
	}

	if routes := registry.Routes(); len(routes) > 0 {
		fmt.Fprintln(s.out, routeTable(routes))
	}
}

func (s *Summary) header() string {
	version := s.version
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s %s started in %s", s.serviceName, version, s.startupDuration.Round(time.Millisecond))
}

func (s *Summary) componentTable(components []component.Component, health map[string]component.Health) string {
	tw := newTable("Component", "Type", "Details", "Health")
	for _, c := range components {
		name, typ, details := c.Name(), "", ""
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				name = desc.Name
			}
			typ, details = desc.Type, desc.Details
		}
		tw.AppendRow(table.Row{name, typ, details, healthCell(health[c.Name()])})
	}
	return tw.Render()
}

func routeTable(routes []component.Route) string {
	tw := newTable("Method", "Path", "Handler")
	for _, r := range routes {
		tw.AppendRow(table.Row{r.Method, r.Path, r.Handler})
	}
	return tw.Render()
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func healthCell(h component.Health) string {
	status := strings.ToLower(string(h.Status))
	if status == "" {
		status = "unknown"
	}
	if h.Message != "" {
		status += ": " + h.Message
	}
	return status
}
