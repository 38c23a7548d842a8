package bootstrap

import (
	"context"
	"fmt"
)

// Hook runs at one lifecycle stage.
type Hook func(ctx context.Context) error

type stage int

const (
	stageStart stage = iota
	stageReady
	stageStop
	stageCount
)

func (s stage) String() string {
	return [...]string{"start", "ready", "stop"}[s]
}

// OnStart hooks run once every component has started. A failure aborts
// the start.
func (a *App[C]) OnStart(hooks ...Hook) { a.hooks[stageStart] = append(a.hooks[stageStart], hooks...) }

// OnReady hooks run after the ready check, before the task.
func (a *App[C]) OnReady(hooks ...Hook) { a.hooks[stageReady] = append(a.hooks[stageReady], hooks...) }

// OnStop hooks run before components stop.
func (a *App[C]) OnStop(hooks ...Hook) { a.hooks[stageStop] = append(a.hooks[stageStop], hooks...) }

// run calls the hooks of s in order and stops at the first failure.
func (a *App[C]) run(ctx context.Context, s stage) error {
	for i, h := range a.hooks[s] {
		if err := h(ctx); err != nil {
			return fmt.Errorf("%s hook %d: %w", s, i, err)
		}
	}
	return nil
}
