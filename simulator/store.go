package simulator

import (
	"cmp"
	"slices"
	"strconv"
	"sync"

	"github.com/kbukum/invstream/inventory"
)

// Record is a product state with the sequence number of its last change.
type Record struct {
	Sequence uint64          `json:"sequence"`
	State    inventory.State `json:"state"`
}

// FrameID is the SSE id carried by frames for this record.
func (r Record) FrameID() string {
	return strconv.FormatUint(r.Sequence, 10)
}

// Store holds the current inventory. Every accepted change takes the next
// value of one global sequence, so frame ids increase in publish order.
type Store struct {
	mu       sync.RWMutex
	products map[string]Record
	seq      uint64
}

// NewStore returns a store seeded with states, in order.
func NewStore(seed ...inventory.State) *Store {
	s := &Store{products: make(map[string]Record)}
	for _, st := range seed {
		s.Put(st)
	}
	return s
}

// Put records st as the product's current state and returns the record.
func (s *Store) Put(st inventory.State) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	rec := Record{Sequence: s.seq, State: cloneState(st)}
	s.products[st.ProductID] = rec
	return rec
}

// Update applies fn to a copy of the product's state and stores the result.
// It reports false when the product is unknown.
func (s *Store) Update(productID string, fn func(*inventory.State)) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[productID]
	if !ok {
		return Record{}, false
	}
	st := cloneState(cur.State)
	fn(&st)
	st.ProductID = productID
	s.seq++
	rec := Record{Sequence: s.seq, State: st}
	s.products[productID] = rec
	return rec, true
}

// Get returns the product's current record.
func (s *Store) Get(productID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.products[productID]
	if !ok {
		return Record{}, false
	}
	rec.State = cloneState(rec.State)
	return rec, true
}

// Since returns the records changed after sequence after, oldest first.
// Since(0) is the full inventory.
func (s *Store) Since(after uint64) []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.products))
	for _, rec := range s.products {
		if rec.Sequence > after {
			rec.State = cloneState(rec.State)
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Record) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return out
}

// ProductIDs returns the known product ids, sorted.
func (s *Store) ProductIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Sequence returns the last assigned sequence number.
func (s *Store) Sequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func cloneState(st inventory.State) inventory.State {
	if st.Lots != nil {
		st.Lots = slices.Clone(st.Lots)
	}
	return st
}
