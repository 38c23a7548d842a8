package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/invstream/logger"
)

// DefaultStopTimeout bounds each Stop call.
const DefaultStopTimeout = 10 * time.Second

type slot struct {
	Component
	running bool
}

// Registry starts components in registration order and stops the running
// ones in reverse.
type Registry struct {
	mu     sync.RWMutex
	slots  []*slot
	byName map[string]*slot
	log    *logger.Logger
	grace  time.Duration
}

// NewRegistry returns an empty registry. A nil log means the global logger.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		byName: map[string]*slot{},
		log:    log.WithComponent("registry"),
		grace:  DefaultStopTimeout,
	}
}

// Register appends c. Dependencies go first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.byName[name] != nil {
		return fmt.Errorf("component %q already registered", name)
	}
	s := &slot{Component: c}
	r.slots = append(r.slots, s)
	r.byName[name] = s
	r.log.Debug("registered", logger.Fields(logger.FieldComponent, name))
	return nil
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s := r.byName[name]; s != nil {
		return s.Component
	}
	return nil
}

// StartAll starts every component. When one fails, the ones already running
// are stopped and the joined errors are returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("starting components", logger.Fields("count", len(r.slots)))
	for _, s := range r.slots {
		if err := s.Start(ctx); err != nil {
			err = fmt.Errorf("start %s: %w", s.Name(), err)
			r.log.Error("start failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, s.Name()), err))
			return errors.Join(err, r.stopRunning(context.WithoutCancel(ctx)))
		}
		s.running = true
	}
	return nil
}

// StopAll stops the running components, newest first, and joins their
// errors. Each Stop gets DefaultStopTimeout.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.Info("stopping components")
	return r.stopRunning(ctx)
}

func (r *Registry) stopRunning(ctx context.Context) error {
	var errs []error
	for i := len(r.slots) - 1; i >= 0; i-- {
		s := r.slots[i]
		if !s.running {
			continue
		}
		s.running = false
		if err := r.stop(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, s *slot) error {
	ctx, cancel := context.WithTimeout(ctx, r.grace)
	defer cancel()
	fields := logger.Fields(logger.FieldComponent, s.Name())
	if err := s.Stop(ctx); err != nil {
		r.log.Error("stop failed", logger.MergeWithError(fields, err))
		return fmt.Errorf("stop %s: %w", s.Name(), err)
	}
	r.log.Debug("stopped", fields)
	return nil
}

// HealthAll probes every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.slots))
	for i, s := range r.slots {
		out[i] = s.Health(ctx)
	}
	return out
}

// LogSummary logs each Describable component and each route of the
// RouteProvider ones.
func (r *Registry) LogSummary() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.slots {
		if d, ok := s.Component.(Describable); ok {
			desc := d.Describe()
			if desc.Name == "" {
				desc.Name = s.Name()
			}
			r.log.Info("component", logger.Fields("name", desc.Name, "type", desc.Type, "details", desc.Details))
		}
		rp, ok := s.Component.(RouteProvider)
		if !ok {
			continue
		}
		for _, rt := range rp.Routes() {
			r.log.Info("route", logger.Fields("method", rt.Method, "path", rt.Path, "handler", rt.Handler))
		}
	}
}
