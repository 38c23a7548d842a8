package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/invstream/component"
)

func TestApplyChange(t *testing.T) {
	tests := []struct {
		name        string
		available   int64
		delta       int64
		reserve     bool
		wantAvail   int64
		wantReserve int64
		wantLot     int64
	}{
		{"restock", 5, 3, false, 8, 0, 8},
		{"sell", 5, -3, false, 2, 0, 2},
		{"sell below zero", 2, -5, false, 0, 0, 0},
		{"reserve", 5, 3, true, 2, 3, 5},
		{"reserve capped", 2, 9, true, 0, 2, 2},
		{"negative reserve ignored", 5, -4, true, 5, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := product("p", tt.available)
			applyChange(&st, tt.delta, tt.reserve)
			if st.TotalAvailable != tt.wantAvail || st.TotalReserved != tt.wantReserve || st.Lots[0].Quantity != tt.wantLot {
				t.Errorf("got available=%d reserved=%d lot=%d", st.TotalAvailable, st.TotalReserved, st.Lots[0].Quantity)
			}
			if err := st.Validate(); err != nil {
				t.Errorf("state no longer valid: %v", err)
			}
		})
	}
}

func TestActivity_Step(t *testing.T) {
	b := newBackend(t, quiet, product("p1", 10), product("p2", 10))
	a := NewActivity(b.api, 0, 42)

	for range 5 {
		if err := a.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if got := b.store.Sequence(); got != 7 {
		t.Errorf("Sequence = %d, want 7", got)
	}
	for _, rec := range b.store.Since(0) {
		if err := rec.State.Validate(); err != nil {
			t.Errorf("%s invalid after activity: %v", rec.State.ProductID, err)
		}
	}
}

func TestActivity_EmptyStore(t *testing.T) {
	b := newBackend(t, quiet)
	if err := NewActivity(b.api, 0, 1).Step(); err != nil {
		t.Errorf("Step on empty store: %v", err)
	}
	if b.store.Sequence() != 0 {
		t.Error("empty store changed")
	}
}

func TestActivity_Lifecycle(t *testing.T) {
	b := newBackend(t, quiet, product("p1", 10))
	a := NewActivity(b.api, 5*time.Millisecond, 7)
	ctx := context.Background()

	if h := a.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(waitTimeout)
	for b.store.Sequence() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("activity published nothing")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if h := a.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("health while running = %s", h.Status)
	}
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := a.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	seq := b.store.Sequence()
	time.Sleep(20 * time.Millisecond)
	if b.store.Sequence() != seq {
		t.Error("activity kept publishing after Stop")
	}
}

func TestActivity_Disabled(t *testing.T) {
	b := newBackend(t, quiet)
	a := NewActivity(b.api, 0, 1)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := a.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("disabled activity health = %s", h.Status)
	}
	if d := a.Describe(); d.Details != "disabled" {
		t.Errorf("Describe = %+v", d)
	}
}
