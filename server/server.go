package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/invstream/logger"
	"github.com/kbukum/invstream/server/endpoint"
	"github.com/kbukum/invstream/server/middleware"
)

// ShutdownTimeout bounds graceful shutdown in Stop.
const ShutdownTimeout = 5 * time.Second

// Server serves a Gin engine over HTTP/1.1 and cleartext HTTP/2 on one
// port. Middleware wraps the whole engine, so it also sees unmatched paths.
type Server struct {
	engine *gin.Engine
	config Config
	log    *logger.Logger
	stack  []middleware.Middleware

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// New returns a server without middleware. Gin runs in debug mode only when
// the global log level is debug or lower.
func New(cfg Config, log *logger.Logger) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)
	return &Server{engine: gin.New(), config: cfg, log: log.WithComponent("server")}
}

// GinEngine is where routes are registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// ApplyMiddleware installs recovery, request ids, CORS, the body-size limit
// and request logging, then extra, outermost first. Call it before Start.
func (s *Server) ApplyMiddleware(extra ...middleware.Middleware) {
	s.stack = append(s.stack,
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
	s.stack = append(s.stack, extra...)
}

func (s *Server) handler() http.Handler {
	h2 := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: s.config.IdleTimeout}
	return middleware.Chain(s.stack...)(h2c.NewHandler(s.engine, h2))
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound, so Addr reports the real port even for port 0.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", addr, err)
	}

	// Request contexts derive from base, which is canceled when shutdown
	// begins so streaming handlers return instead of holding Shutdown open.
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	srv := &http.Server{
		Handler:           s.handler(),
		BaseContext:       func(net.Listener) context.Context { return base },
		ReadHeaderTimeout: s.config.ReadTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      max(s.config.WriteTimeout, 0),
		IdleTimeout:       s.config.IdleTimeout,
	}
	srv.RegisterOnShutdown(cancel)

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("http server started", logger.Fields("addr", s.Addr()))
	return nil
}

// Stop shuts the server down gracefully, waiting at most ShutdownTimeout
// before closing remaining connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("graceful shutdown incomplete", logger.Fields(logger.FieldError, err.Error()))
		if closeErr := srv.Close(); closeErr != nil {
			return fmt.Errorf("server shutdown error: %w", errors.Join(err, closeErr))
		}
	}
	s.log.Info("http server stopped")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.config.Addr()
}

// RegisterDefaultEndpoints registers /healthz, /livez, /readyz and /info.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker) {
	s.engine.GET("/healthz", endpoint.Health(serviceName, checker))
	s.engine.GET("/livez", endpoint.Liveness(serviceName))
	s.engine.GET("/readyz", endpoint.Readiness(serviceName, checker))
	s.engine.GET("/info", endpoint.Info(serviceName))
}
