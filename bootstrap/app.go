package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/invstream/component"
	"github.com/kbukum/invstream/logger"
)

const DefaultGracefulTimeout = 15 * time.Second

// App owns a command's components and lifecycle. Cfg keeps the concrete
// config type.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	grace time.Duration
	hooks [stageCount][]Hook
}

// NewApp applies defaults to cfg, validates it and sets up logging.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	svc := cfg.GetServiceConfig()
	o := options{grace: DefaultGracefulTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		logger.Init(&svc.Logging)
		log = logger.GetGlobalLogger()
	}
	return &App[C]{
		Name:       svc.Name,
		Version:    svc.Version,
		Cfg:        cfg,
		Components: component.NewRegistry(log),
		Logger:     log,
		grace:      o.grace,
	}, nil
}

func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// ReadyCheck fails when any component is not healthy, naming each one.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	results := a.Components.HealthAll(ctx)
	if component.Overall(results) == component.StatusHealthy {
		return nil
	}
	var bad []string
	for _, h := range results {
		if h.Status == component.StatusHealthy {
			continue
		}
		s := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			s += "(" + h.Message + ")"
		}
		bad = append(bad, s)
	}
	return errors.New("not ready: " + strings.Join(bad, ", "))
}

// Run serves until SIGINT, SIGTERM or the end of ctx, then stops.
func (a *App[C]) Run(ctx context.Context) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		a.Logger.Info("shutdown requested", logger.Fields("cause", context.Cause(ctx).Error()))
		return nil
	})
}

// RunTask starts the app, runs task and stops the app once task returns.
// SIGINT and SIGTERM cancel the task's context. A task error takes
// precedence over a stop error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.start(ctx); err != nil {
		return err
	}

	taskCtx, release := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	taskErr := task(taskCtx)
	release()

	if err := a.stop(); err != nil && taskErr == nil {
		return err
	}
	return taskErr
}

func (a *App[C]) start(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("start components: %w", err)
	}
	if err := a.run(ctx, stageStart); err != nil {
		a.abort()
		return err
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("starting while not ready", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := a.run(ctx, stageReady); err != nil {
		a.abort()
		return err
	}

	a.Components.LogSummary()
	a.Logger.Info("started", logger.DurationFields("startup", time.Since(began)))
	return nil
}

// abort stops components after a failed start without running stop hooks.
func (a *App[C]) abort() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("stop after failed start", logger.Fields(logger.FieldError, err.Error()))
	}
}

// stop runs stop hooks, then stops components in reverse order, all
// within the graceful timeout. The first error is returned.
func (a *App[C]) stop() error {
	a.Logger.Info("stopping", logger.Fields("timeout", a.grace.String()))
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()

	hookErr := a.run(ctx, stageStop)
	if hookErr != nil {
		a.Logger.Error("stop hook failed", logger.Fields(logger.FieldError, hookErr.Error()))
	}
	stopErr := a.Components.StopAll(ctx)
	if stopErr != nil {
		a.Logger.Error("components stopped with errors", logger.Fields(logger.FieldError, stopErr.Error()))
	}
	a.Logger.Info("stopped")
	if hookErr != nil {
		return hookErr
	}
	return stopErr
}
