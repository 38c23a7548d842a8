package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/invstream/component"
)

// Component installs the tracer and meter providers on Start and flushes
// them on Stop.
type Component struct {
	cfg Config

	mu       sync.Mutex
	shutdown ShutdownFunc
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent returns a Component for cfg.
func NewComponent(cfg Config) *Component {
	return &Component{cfg: cfg}
}

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown != nil {
		return nil
	}
	shutdown, err := Setup(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	c.shutdown = shutdown
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	shutdown := c.shutdown
	c.shutdown = nil
	c.mu.Unlock()
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case !c.cfg.Enabled:
		h.Message = "disabled"
	case c.shutdown == nil:
		h.Status = component.StatusDegraded
		h.Message = "exporters not running"
	default:
		h.Message = "exporting to " + c.cfg.Endpoint
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("OTLP %s (sample rate %.2f)", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Observability", Type: "otel", Details: details}
}
