package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kbukum/invstream/component"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
)

// Activity changes random stock levels on a fixed interval so connected
// clients see a steady flow of updates.
type Activity struct {
	api      *API
	interval time.Duration
	rnd      *rand.Rand
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	applied int
}

var (
	_ component.Component   = (*Activity)(nil)
	_ component.Describable = (*Activity)(nil)
)

// NewActivity returns an Activity publishing through api. A zero interval
// leaves it idle.
func NewActivity(api *API, interval time.Duration, seed uint64) *Activity {
	return &Activity{
		api:      api,
		interval: interval,
		rnd:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:      api.log.WithComponent("activity"),
	}
}

func (a *Activity) Name() string { return "activity" }

// Start launches the update loop.
func (a *Activity) Start(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil || a.interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.loop(ctx, a.done)
	return nil
}

// Stop ends the loop and waits for it.
func (a *Activity) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Activity) Health(_ context.Context) component.Health {
	a.mu.Lock()
	defer a.mu.Unlock()
	status := component.StatusHealthy
	msg := fmt.Sprintf("%d changes published", a.applied)
	if a.interval > 0 && a.cancel == nil {
		status = component.StatusUnhealthy
		msg = "not running"
	}
	return component.Health{Name: a.Name(), Status: status, Message: msg}
}

func (a *Activity) Describe() component.Description {
	details := "disabled"
	if a.interval > 0 {
		details = "every " + a.interval.String()
	}
	return component.Description{Name: "Inventory Activity", Type: "simulator", Details: details}
}

func (a *Activity) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(a.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := a.Step(); err != nil {
				a.log.Warn("activity step failed", logger.Fields(logger.FieldError, err.Error()))
			}
		}
	}
}

// Step applies one random change to one product. It is a no-op when the
// store is empty.
func (a *Activity) Step() error {
	a.mu.Lock()
	ids := a.api.store.ProductIDs()
	if len(ids) == 0 {
		a.mu.Unlock()
		return nil
	}
	id := ids[a.rnd.IntN(len(ids))]
	delta := a.rnd.Int64N(21) - 10
	reserve := a.rnd.IntN(4) == 0
	a.mu.Unlock()

	_, err := a.api.Mutate(id, func(st *inventory.State) {
		applyChange(st, delta, reserve)
	})
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.applied++
	a.mu.Unlock()
	return nil
}

// applyChange moves delta units into or out of stock, or into reservation
// when reserve is set. Totals never go negative.
func applyChange(st *inventory.State, delta int64, reserve bool) {
	if reserve {
		n := min(max(delta, 0), st.TotalAvailable)
		st.TotalAvailable -= n
		st.TotalReserved += n
		if len(st.Lots) > 0 {
			st.Lots[0].Reserved += n
		}
		return
	}
	st.TotalAvailable = max(st.TotalAvailable+delta, 0)
	if len(st.Lots) > 0 {
		st.Lots[0].Quantity = max(st.Lots[0].Quantity+delta, 0)
	}
}
