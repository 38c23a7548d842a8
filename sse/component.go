package sse

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/invstream/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Hub under a component.Registry. A Hub cannot be
// restarted, so Start after Stop is an error.
type Component struct {
	hub  *Hub
	path string

	mu      sync.Mutex
	stopped chan struct{} // closed when Run returns
	done    bool
}

// NewComponent returns a component owning a new Hub that is served on path.
func NewComponent(path string) *Component {
	return &Component{hub: NewHub(), path: path}
}

func (c *Component) Hub() *Hub    { return c.hub }
func (c *Component) Name() string { return "sse" }

func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.done:
		return fmt.Errorf("sse hub for %s already stopped", c.path)
	case c.stopped != nil:
		return nil
	}
	c.stopped = make(chan struct{})
	go func() {
		defer close(c.stopped)
		c.hub.Run()
	}()
	return nil
}

// Stop closes every client and waits for the hub loop, or for ctx.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = true
	c.hub.Stop()
	if c.stopped == nil {
		return nil
	}
	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health is unhealthy unless the hub loop is running.
func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	running := c.stopped != nil && !c.done
	c.mu.Unlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !running {
		h.Status, h.Message = component.StatusUnhealthy, "hub not running"
		return h
	}
	st := c.hub.Stats()
	h.Message = fmt.Sprintf("%d clients connected, %d frames delivered, %d slow clients dropped",
		st.Clients, st.Delivered, st.Dropped)
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: "SSE Hub", Type: "sse", Details: "path " + c.path}
}
