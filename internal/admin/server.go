package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/server"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Status is a probe result.
type Status string

// Probe results.
const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Status            Status `json:"status"`
	ListenAddress     string `json:"listenAddress,omitempty"`
	ActiveConnections int    `json:"activeConnections"`
}

// RoutesResponse is the /routes body.
type RoutesResponse struct {
	Routes              []string `json:"routes"`
	SuggestionThreshold int      `json:"suggestionThreshold"`
}

// ConnectionInfo describes one open connection in /connections.
type ConnectionInfo struct {
	ID         string    `json:"id"`
	RemoteAddr string    `json:"remoteAddr"`
	LocalAddr  string    `json:"localAddr"`
	StartTime  time.Time `json:"startTime"`
	Age        string    `json:"age"`
	BytesIn    int64     `json:"bytesIn"`
	BytesOut   int64     `json:"bytesOut"`
}

// ConnectionsResponse is the /connections body.
type ConnectionsResponse struct {
	Count       int              `json:"count"`
	Connections []ConnectionInfo `json:"connections"`
}

// Listener is the view of the pathhint server the admin endpoint needs.
type Listener interface {
	Addr() net.Addr
	ActiveConnections() int
	Connections() []*server.TrackedConnection
	Connection(id string) *server.TrackedConnection
}

// Server is the admin HTTP server.
type Server struct {
	address    string
	engine     *gin.Engine
	httpServer *http.Server
	listener   Listener
	table      *router.Table
	metrics    *observability.Metrics
	logger     observability.Logger
	version    string
	startTime  time.Time
	mu         sync.Mutex
	ln         net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /healthz.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates an admin server for listener and table.
func New(
	address string,
	listener Listener,
	table *router.Table,
	metrics *observability.Metrics,
	opts ...Option,
) *Server {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		address:   address,
		engine:    gin.New(),
		listener:  listener,
		table:     table,
		metrics:   metrics,
		logger:    observability.NopLogger(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/readyz", s.ready)
	s.engine.GET("/routes", s.routes)
	s.engine.GET("/connections", s.connections)
	s.engine.GET("/connections/:id", s.connection)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	})
}

func (s *Server) ready(c *gin.Context) {
	resp := ReadinessResponse{Status: StatusUnhealthy}
	if s.listener != nil {
		resp.ActiveConnections = s.listener.ActiveConnections()
		if addr := s.listener.Addr(); addr != nil {
			resp.Status = StatusHealthy
			resp.ListenAddress = addr.String()
		}
	}

	code := http.StatusOK
	if resp.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (s *Server) routes(c *gin.Context) {
	resp := RoutesResponse{
		Routes:              []string{},
		SuggestionThreshold: router.SuggestionThreshold,
	}
	if s.table != nil {
		for _, p := range s.table.Paths() {
			resp.Routes = append(resp.Routes, p.String())
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) connections(c *gin.Context) {
	resp := ConnectionsResponse{Connections: []ConnectionInfo{}}
	if s.listener != nil {
		for _, tc := range s.listener.Connections() {
			resp.Connections = append(resp.Connections, connectionInfo(tc))
		}
	}
	resp.Count = len(resp.Connections)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) connection(c *gin.Context) {
	var tc *server.TrackedConnection
	if s.listener != nil {
		tc = s.listener.Connection(c.Param("id"))
	}
	if tc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "connection not found"})
		return
	}
	c.JSON(http.StatusOK, connectionInfo(tc))
}

func connectionInfo(tc *server.TrackedConnection) ConnectionInfo {
	in, out, age := tc.Stats()
	return ConnectionInfo{
		ID:         tc.ID,
		RemoteAddr: tc.RemoteAddr,
		LocalAddr:  tc.LocalAddr,
		StartTime:  tc.StartTime,
		Age:        age.Round(time.Millisecond).String(),
		BytesIn:    in,
		BytesOut:   out,
	}
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen binds the admin address.
func (s *Server) Listen(ctx context.Context) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("admin listen on %s: %w", s.address, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()
	return nil
}

// Serve serves until Stop. It returns nil after a clean shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln, srv := s.ln, s.httpServer
	s.mu.Unlock()

	if ln == nil {
		return errors.New("admin: Serve called before Listen")
	}

	s.logger.Info("admin endpoint listening", observability.String("address", ln.Addr().String()))

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server error: %w", err)
	}
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop shuts the admin server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("stopping admin endpoint")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown admin server: %w", err)
	}
	return nil
}
