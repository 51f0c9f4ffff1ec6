package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// Accept error backoff bounds.
const (
	MinAcceptBackoff = 5 * time.Millisecond
	MaxAcceptBackoff = time.Second
)

// DefaultShutdownTimeout is the drain budget used by the process on
// SIGINT/SIGTERM.
const DefaultShutdownTimeout = 30 * time.Second

// Server is the pathhint TCP listener.
type Server struct {
	address        string
	resolver       *router.Resolver
	logger         observability.Logger
	metrics        *observability.Metrics
	tracer         *observability.Tracer
	wrapListener   func(net.Listener) net.Listener
	readBufferSize int

	listener    net.Listener
	connections *ConnectionTracker
	wg          sync.WaitGroup
	mu          sync.Mutex
	closing     bool
	stopCh      chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithTracer sets the tracer used for connection spans.
func WithTracer(tracer *observability.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithListenerWrapper wraps the bound listener, for example with
// admission control.
func WithListenerWrapper(wrap func(net.Listener) net.Listener) Option {
	return func(s *Server) {
		s.wrapListener = wrap
	}
}

// WithReadBufferSize overrides MaxRequestLineSize.
func WithReadBufferSize(size int) Option {
	return func(s *Server) {
		if size > 0 {
			s.readBufferSize = size
		}
	}
}

// New creates a server that will listen on address and answer from
// resolver. The resolver's table must not change afterwards.
func New(address string, resolver *router.Resolver, opts ...Option) *Server {
	s := &Server{
		address:        address,
		resolver:       resolver,
		logger:         observability.NopLogger(),
		readBufferSize: MaxRequestLineSize,
		stopCh:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.connections = NewConnectionTracker(s.logger)
	return s
}

// Listen binds the listening socket. A failure is a *util.BindError.
func (s *Server) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("server already listening on %s", s.listener.Addr())
	}
	if s.closing {
		return util.ErrServerClosed
	}

	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return util.NewBindError(s.address, err)
	}

	if s.wrapListener != nil {
		ln = s.wrapListener(ln)
	}
	s.listener = ln

	s.logger.Info("listener bound",
		observability.String("address", ln.Addr().String()),
		observability.Int("routes", s.resolver.Table().Len()),
	)
	return nil
}

// Serve runs the accept loop until Stop closes the listener, then returns
// util.ErrServerClosed. Accept failures are logged and retried.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return fmt.Errorf("%w: Serve called before Listen", util.ErrInvalidInput)
	}

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return util.ErrServerClosed
			}

			backoff = nextBackoff(backoff)
			s.metrics.RecordAcceptError()
			s.logger.Error("accept error",
				observability.Error(util.NewAcceptError(err)),
				observability.Duration("retry_in", backoff),
			)

			select {
			case <-time.After(backoff):
			case <-s.stopCh:
				return util.ErrServerClosed
			}
			continue
		}

		backoff = 0
		s.spawnConnectionHandler(conn)
	}
}

// Start binds and serves. It blocks until Stop.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve()
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return MinAcceptBackoff
	}
	d *= 2
	if d > MaxAcceptBackoff {
		return MaxAcceptBackoff
	}
	return d
}

// spawnConnectionHandler hands conn to a new goroutine. Nothing waits for
// it except Stop.
func (s *Server) spawnConnectionHandler(conn net.Conn) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.handleConnection(conn)
	}()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Stop closes the listening socket and waits for in-flight connections
// until ctx is done. Handlers are never interrupted; on timeout Stop
// returns ctx.Err() and the remaining handlers keep running.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	close(s.stopCh)
	ln := s.listener
	s.mu.Unlock()

	s.logger.Info("stopping listener",
		observability.Int("active_connections", s.connections.Count()),
	)

	if ln != nil {
		if err := ln.Close(); err != nil {
			s.logger.Debug("error closing listener", observability.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("all connections closed")
		return nil
	case <-ctx.Done():
		s.logger.Warn("shutdown wait ended with connections still open",
			observability.Int("active_connections", s.connections.Count()),
		)
		return ctx.Err()
	}
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ActiveConnections returns the number of connections not yet closed.
func (s *Server) ActiveConnections() int {
	return s.connections.Count()
}

// Connections returns the open connections, oldest first.
func (s *Server) Connections() []*TrackedConnection {
	return s.connections.List()
}

// Connection returns the open connection with id, or nil.
func (s *Server) Connection(id string) *TrackedConnection {
	return s.connections.Get(id)
}
