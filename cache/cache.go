// Package cache keeps the latest known inventory state per product.
//
// Store consumes classified stream events. Delivery across reconnects is
// at-least-once, so applying the same frame twice leaves the store unchanged.
package cache

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
)

// DefaultSize is the number of products kept when New is given size <= 0.
const DefaultSize = 10000

// Entry is the cached state of one product.
type Entry struct {
	State inventory.State
	// FrameID is the id of the frame that produced State, empty when absent.
	FrameID   string
	Source    inventory.Kind
	UpdatedAt time.Time
}

// Stats counts what the store has seen.
type Stats struct {
	Applied       uint64
	Duplicates    uint64
	Heartbeats    uint64
	DecodeErrors  uint64
	Evictions     uint64
	LastHeartbeat time.Time
}

// Store is an LRU of product states. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[string, Entry]
	stats   Stats
	now     func() time.Time
	log     *logger.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for evictions and decode errors.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l.WithComponent("cache") }
}

// New creates a store holding up to size products.
func New(size int, opts ...Option) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	s := &Store{now: time.Now, log: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	entries, err := lru.NewWithEvict(size, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating product cache: %w", err)
	}
	s.entries = entries
	return s, nil
}

// onEvict runs inside Add or Purge while s.mu is held.
func (s *Store) onEvict(productID string, _ Entry) {
	s.stats.Evictions++
	s.log.Debug("product evicted", logger.Fields(logger.FieldProductID, productID))
}

// Apply folds one event into the store and reports whether a product
// state changed. A Snapshot or Update whose frame id was already applied
// to that product is ignored.
func (s *Store) Apply(ev inventory.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev := ev.(type) {
	case inventory.Snapshot:
		return s.put(ev.State, ev.ID, ev.Kind())
	case inventory.Update:
		return s.put(ev.State, ev.ID, ev.Kind())
	case inventory.Heartbeat:
		s.stats.Heartbeats++
		s.stats.LastHeartbeat = s.now()
	case inventory.DecodeError:
		s.stats.DecodeErrors++
		s.log.Warn("skipped undecodable frame", logger.Fields(
			logger.FieldEventType, ev.RawType,
			logger.FieldEventID, ev.ID,
			logger.FieldError, ev.Cause,
		))
	}
	return false
}

func (s *Store) put(state inventory.State, frameID string, kind inventory.Kind) bool {
	if frameID != "" {
		if cur, ok := s.entries.Peek(state.ProductID); ok && cur.FrameID == frameID {
			s.stats.Duplicates++
			return false
		}
	}
	state.Lots = slices.Clone(state.Lots)
	s.entries.Add(state.ProductID, Entry{
		State:     state,
		FrameID:   frameID,
		Source:    kind,
		UpdatedAt: s.now(),
	})
	s.stats.Applied++
	return true
}

// Handle applies ev. It has the shape of a stream follow handler.
func (s *Store) Handle(_ context.Context, ev inventory.Event) error {
	s.Apply(ev)
	return nil
}

// Get returns the state of a product and marks it recently used.
func (s *Store) Get(productID string) (inventory.State, bool) {
	e, ok := s.Entry(productID)
	return e.State, ok
}

// Entry returns the cached entry of a product and marks it recently used.
func (s *Store) Entry(productID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries.Get(productID)
	if ok {
		e.State.Lots = slices.Clone(e.State.Lots)
	}
	return e, ok
}

// States returns every cached product state ordered by product id.
func (s *Store) States() []inventory.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.State, 0, s.entries.Len())
	for _, e := range s.entries.Values() {
		st := e.State
		st.Lots = slices.Clone(st.Lots)
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b inventory.State) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out
}

// Len returns the number of cached products.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Stats returns a copy of the counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Stale reports whether no heartbeat or state change arrived within d.
func (s *Store) Stale(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.stats.LastHeartbeat
	for _, e := range s.entries.Values() {
		if e.UpdatedAt.After(last) {
			last = e.UpdatedAt
		}
	}
	return last.IsZero() || s.now().Sub(last) > d
}

// Purge drops every product. Dropped products count as evictions.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Purge()
}
