package simulator

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/invstream/auth"
	apperrors "github.com/kbukum/invstream/errors"
	"github.com/kbukum/invstream/inventory"
	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/server"
	"github.com/kbukum/invstream/server/middleware"
	"github.com/kbukum/invstream/sse"
	"github.com/kbukum/invstream/validation"
)

// Event tags written on the stream.
const (
	EventInventory = "inventory"
	EventUpdate    = "update"
	EventHeartbeat = "heartbeat"
)

// StreamPath is the route of the inventory event stream.
const StreamPath = "/v1/inventory/stream"

// API serves the simulated inventory backend.
type API struct {
	cfg   Config
	store *Store
	hub   *sse.Hub
	auth  *auth.Service
	log   *logger.Logger

	// publishMu keeps broadcast order equal to sequence order.
	publishMu sync.Mutex
}

// NewAPI wires the store, hub and token service together.
func NewAPI(cfg Config, store *Store, hub *sse.Hub, tokens *auth.Service, log *logger.Logger) *API {
	return &API{
		cfg:   cfg,
		store: store,
		hub:   hub,
		auth:  tokens,
		log:   log.WithComponent("simulator"),
	}
}

// Register mounts the API routes on r.
func (a *API) Register(r gin.IRouter) {
	authed := middleware.Auth(a.auth.Verify)

	v1 := r.Group("/v1")
	v1.GET("/inventory/stream", authed, a.requireScope(auth.ScopeStreamRead), a.stream)
	v1.GET("/inventory", authed, a.requireScope(auth.ScopeStreamRead), a.list)
	v1.GET("/inventory/:productId", authed, a.requireScope(auth.ScopeStreamRead), a.get)
	v1.POST("/inventory", authed, a.requireScope(auth.ScopeInventoryWrite), a.publishState)
	v1.GET("/streams", authed, a.requireScope(auth.ScopeInventoryWrite), a.streams)
	v1.POST("/streams/disconnect", authed, a.requireScope(auth.ScopeInventoryWrite), a.disconnect)

	if a.cfg.AllowTokenMint {
		v1.POST("/tokens",
			middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: a.cfg.MintPerMinute}),
			middleware.GinWrap(middleware.BodySizeLimit("4KB")),
			a.requireMintKey,
			a.mint)
	}
}

func (a *API) requireMintKey(c *gin.Context) {
	if a.cfg.MintKeyHash != "" && !auth.VerifyKey(c.GetHeader(auth.HeaderMintKey), a.cfg.MintKeyHash) {
		server.RespondWithError(c, apperrors.Unauthorized("missing or wrong "+auth.HeaderMintKey))
		return
	}
	c.Next()
}

func (a *API) requireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.Claims[*auth.Claims](c)
		if !ok || !claims.HasScope(scope) {
			server.RespondWithError(c, apperrors.Forbidden("missing scope "+scope))
			return
		}
		c.Next()
	}
}

// stream sends one inventory frame per product, then live update frames
// and heartbeats. A numeric Last-Event-ID the store knows limits the
// initial frames to products changed after it.
func (a *API) stream(c *gin.Context) {
	claims, _ := middleware.Claims[*auth.Claims](c)
	after := a.resumePoint(c.GetHeader("Last-Event-ID"))
	clientID := claims.Subject + ":" + uuid.NewString()

	a.log.Info("stream opened", logger.Fields(
		"client_id", clientID,
		"resume_after", after,
		logger.FieldRequestID, c.GetHeader(middleware.HeaderRequestID),
	))
	started := time.Now()

	sse.ServeSSE(a.hub, c.Writer, c.Request, clientID,
		sse.WithClientOptions(sse.WithSubject(claims.Subject), sse.WithBuffer(a.cfg.ClientBuffer)),
		sse.WithInitial(func() []sse.Frame { return a.initialFrames(after) }),
		sse.WithHeartbeat(a.cfg.Heartbeat, EventHeartbeat),
		sse.WithKeepAlive(a.cfg.KeepAlive),
		sse.WithRetry(a.cfg.Retry),
	)

	a.log.Info("stream closed", logger.Fields("client_id", clientID, logger.FieldDuration, time.Since(started).Milliseconds()))
}

func (a *API) resumePoint(lastEventID string) uint64 {
	if lastEventID == "" {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(lastEventID), 10, 64)
	if err != nil || n > a.store.Sequence() {
		a.log.Debug("ignoring unknown Last-Event-ID", logger.Fields(logger.FieldEventID, lastEventID))
		return 0
	}
	return n
}

func (a *API) initialFrames(after uint64) []sse.Frame {
	records := a.store.Since(after)
	frames := make([]sse.Frame, 0, len(records))
	for _, rec := range records {
		f, err := frame(EventInventory, rec)
		if err != nil {
			a.log.Error("encode state", logger.MergeWithError(logger.Fields(logger.FieldProductID, rec.State.ProductID), err))
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

func frame(event string, rec Record) (sse.Frame, error) {
	st := rec.State
	if st.Lots == nil {
		st.Lots = []inventory.LotInfo{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return sse.Frame{}, err
	}
	return sse.Frame{ID: rec.FrameID(), Event: event, Data: data}, nil
}

// Publish stores st and broadcasts it as an update frame.
func (a *API) Publish(st inventory.State) (Record, error) {
	if st.Lots == nil {
		st.Lots = []inventory.LotInfo{}
	}
	if err := st.Validate(); err != nil {
		return Record{}, err
	}
	a.publishMu.Lock()
	defer a.publishMu.Unlock()
	return a.broadcast(a.store.Put(st))
}

// Mutate applies fn to a known product and broadcasts the result.
func (a *API) Mutate(productID string, fn func(*inventory.State)) (Record, error) {
	a.publishMu.Lock()
	defer a.publishMu.Unlock()
	rec, ok := a.store.Update(productID, fn)
	if !ok {
		return Record{}, apperrors.NotFound("product", productID)
	}
	return a.broadcast(rec)
}

// broadcast runs under publishMu.
func (a *API) broadcast(rec Record) (Record, error) {
	f, err := frame(EventUpdate, rec)
	if err != nil {
		return Record{}, apperrors.Internal(err)
	}
	a.hub.Broadcast(f)
	a.log.Debug("update published", logger.Fields(
		logger.FieldProductID, rec.State.ProductID,
		logger.FieldEventID, f.ID,
		"clients", a.hub.ClientCount(),
	))
	return rec, nil
}

type publishAck struct {
	Status    string `json:"status"`
	Sequence  uint64 `json:"sequence"`
	ProductID string `json:"productId"`
	RequestID string `json:"requestId,omitempty"`
}

// publishState accepts a full State body, validated with the same rules the
// stream client applies.
func (a *API) publishState(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	st, err := inventory.DecodeState(string(body))
	if err != nil {
		if _, ok := apperrors.AsAppError(err); !ok {
			err = apperrors.InvalidInput("body", err.Error())
		}
		server.RespondWithError(c, err)
		return
	}
	rec, err := a.Publish(st)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, publishAck{
		Status:    "accepted",
		Sequence:  rec.Sequence,
		ProductID: rec.State.ProductID,
		RequestID: c.GetHeader(middleware.HeaderRequestID),
	})
}

func (a *API) list(c *gin.Context) {
	server.RespondOK(c, a.store.Since(0))
}

func (a *API) get(c *gin.Context) {
	id := c.Param("productId")
	rec, ok := a.store.Get(id)
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("product", id))
		return
	}
	server.RespondOK(c, rec)
}

type streamInfo struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

type streamsResponse struct {
	Streams []streamInfo `json:"streams"`
	Stats   sse.HubStats `json:"stats"`
}

// streams lists the open streams in id order.
func (a *API) streams(c *gin.Context) {
	ids := a.hub.ClientIDs()
	out := streamsResponse{Streams: make([]streamInfo, 0, len(ids)), Stats: a.hub.Stats()}
	for _, id := range ids {
		// the client may have gone since ClientIDs
		if cl := a.hub.Lookup(id); cl != nil {
			out.Streams = append(out.Streams, streamInfo{ID: id, Subject: cl.Subject()})
		}
	}
	server.RespondOK(c, out)
}

type disconnectRequest struct {
	Subject string `json:"subject" validate:"omitempty,max=128"`
}

// disconnect ends the streams of one subject, or all streams, so clients
// exercise their reconnect path.
func (a *API) disconnect(c *gin.Context) {
	var req disconnectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
			return
		}
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	pattern := "*"
	if req.Subject != "" {
		pattern = escapePattern(req.Subject) + ":*"
	}
	n, err := a.hub.Disconnect(pattern)
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("subject", err.Error()))
		return
	}
	a.log.Info("streams disconnected", logger.Fields("pattern", pattern, "count", n))
	server.RespondOK(c, gin.H{"disconnected": n})
}

type tokenRequest struct {
	Subject    string   `json:"subject" validate:"required,max=128,excludesall=:*?[]\\"`
	Scopes     []string `json:"scopes" validate:"omitempty,dive,oneof=inventory:read inventory:write"`
	TTLSeconds int      `json:"ttlSeconds" validate:"gte=0,lte=86400"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	Scopes    []string  `json:"scopes"`
}

// mint issues a development token. Without scopes the token may only read
// the stream.
func (a *API) mint(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{auth.ScopeStreamRead}
	}

	token, claims, err := a.auth.Mint(req.Subject, time.Duration(req.TTLSeconds)*time.Second, req.Scopes...)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	a.log.Info("token minted", logger.Fields("subject", req.Subject, "scopes", req.Scopes))
	server.RespondCreated(c, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		Scopes:    claims.Scopes,
	})
}

// escapePattern quotes glob metacharacters for filepath.Match.
func escapePattern(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`).Replace(s)
}
