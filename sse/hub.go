package sse

import (
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kbukum/invstream/logger"
)

const (
	// DefaultClientBuffer is the number of frames queued per client.
	DefaultClientBuffer = 256
	// MatchAll is the pattern matching every client id.
	MatchAll = "*"
)

// Client is one connected stream consumer. Its id is matched against
// broadcast and disconnect patterns.
type Client struct {
	id      string
	subject string
	buffer  int
	events  chan Frame
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSubject records the authenticated subject.
func WithSubject(subject string) ClientOption {
	return func(c *Client) { c.subject = subject }
}

// WithBuffer sets how many frames may queue before the client counts as slow.
func WithBuffer(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.buffer = n
		}
	}
}

func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{id: id, buffer: DefaultClientBuffer}
	for _, opt := range opts {
		opt(c)
	}
	c.events = make(chan Frame, c.buffer)
	return c
}

func (c *Client) ID() string      { return c.id }
func (c *Client) Subject() string { return c.subject }

// Events delivers queued frames. It is closed when the hub drops the client.
func (c *Client) Events() <-chan Frame { return c.events }

// Send queues f without blocking and reports whether it fit.
func (c *Client) Send(f Frame) bool {
	select {
	case c.events <- f:
		return true
	default:
		return false
	}
}

func (c *Client) Close() { close(c.events) }

// HubStats counts hub activity since NewHub.
type HubStats struct {
	Clients   int    `json:"clients"`
	Delivered uint64 `json:"delivered"`
	// Dropped counts clients disconnected because their queue was full.
	Dropped uint64 `json:"dropped"`
}

type broadcast struct {
	pattern string
	frame   Frame
}

// Hub fans frames out to registered clients. Registration and broadcasts
// are serialized on the Run goroutine, so a client registered before a
// broadcast call sees that frame.
//
// A client whose queue is full when a frame arrives is disconnected
// instead of skipped. It reconnects and resynchronizes rather than
// silently missing an update.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcasts chan broadcast
	done       chan struct{}
	stopOnce   sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64

	log *logger.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcasts: make(chan broadcast, DefaultClientBuffer),
		done:       make(chan struct{}),
		log:        logger.WithComponent("sse"),
	}
}

// Run processes registrations and broadcasts until Stop. Run it in its
// own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[c.id]; ok {
				h.drop(old)
			}
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "clients", n))

		case b := <-h.broadcasts:
			h.fanOut(b)
		}
	}
}

// Stop closes every client and ends Run. It is idempotent.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c, replacing a client with the same id. After Stop, c is
// closed at once.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues f for every client.
func (h *Hub) Broadcast(f Frame) {
	h.BroadcastTo(MatchAll, f)
}

// BroadcastTo queues f for the clients whose id matches the glob pattern.
func (h *Hub) BroadcastTo(pattern string, f Frame) {
	select {
	case h.broadcasts <- broadcast{pattern: pattern, frame: f}:
	case <-h.done:
	}
}

// Disconnect closes every client whose id matches the glob pattern and
// returns how many were closed. Their streams end as if the server had
// closed them.
func (h *Hub) Disconnect(pattern string) (int, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, c := range h.clients {
		if ok, _ := filepath.Match(pattern, id); ok {
			h.drop(c)
			n++
		}
	}
	return n, nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the connected ids in sorted order.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Lookup returns the client with id, or nil.
func (h *Hub) Lookup(id string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		Clients:   h.ClientCount(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// fanOut runs on the Run goroutine.
func (h *Hub) fanOut(b broadcast) {
	if _, err := filepath.Match(b.pattern, ""); err != nil {
		h.log.Error("bad broadcast pattern", logger.Fields("pattern", b.pattern, logger.FieldError, err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	sent := 0
	for id, c := range h.clients {
		if ok, _ := filepath.Match(b.pattern, id); !ok {
			continue
		}
		if c.Send(b.frame) {
			sent++
			continue
		}
		h.log.Warn("client queue full, disconnecting", logger.Fields("client_id", id, logger.FieldEventID, b.frame.ID))
		h.drop(c)
		h.dropped.Add(1)
	}
	h.delivered.Add(uint64(sent))
	h.log.Debug("broadcast", logger.Fields(
		"pattern", b.pattern,
		logger.FieldEventType, b.frame.Event,
		logger.FieldEventID, b.frame.ID,
		"sent", sent,
	))
}

// drop removes and closes c if it is still the registered client for its
// id. Callers hold h.mu.
func (h *Hub) drop(c *Client) {
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		c.Close()
	}
}
