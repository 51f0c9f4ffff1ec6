package admission

import (
	"context"
	"fmt"
	"math"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/pathhint/internal/config"
	"github.com/vyrodovalexey/pathhint/internal/observability"
)

// Listener delays Accept while the connection cap is reached or the
// accept rate is exceeded. Excess connections wait in the OS backlog.
type Listener struct {
	net.Listener

	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  observability.Logger
	inUse   atomic.Int64

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(l *Listener) {
		l.logger = logger
	}
}

// Wrap returns ln unchanged when cfg sets no limit, otherwise a Listener.
func Wrap(ln net.Listener, cfg *config.AdmissionConfig, opts ...Option) net.Listener {
	if !cfg.Enabled() {
		return ln
	}
	return New(ln, *cfg, opts...)
}

// New wraps ln. A zero MaxConnections or AcceptRate disables that limit.
// AcceptBurst defaults to the rate rounded up, at least 1.
func New(ln net.Listener, cfg config.AdmissionConfig, opts ...Option) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		Listener: ln,
		logger:   observability.NopLogger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	if cfg.MaxConnections > 0 {
		l.sem = semaphore.NewWeighted(int64(cfg.MaxConnections))
	}
	if cfg.AcceptRate > 0 {
		burst := cfg.AcceptBurst
		if burst <= 0 {
			burst = int(math.Max(1, math.Ceil(cfg.AcceptRate)))
		}
		l.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), burst)
	}

	for _, opt := range opts {
		opt(l)
	}

	l.logger.Info("admission control enabled",
		observability.Int("max_connections", cfg.MaxConnections),
		observability.Any("accept_rate", cfg.AcceptRate),
	)

	return l
}

// Accept waits for a free slot and a rate token, then accepts. After
// Close it returns an error wrapping net.ErrClosed.
func (l *Listener) Accept() (net.Conn, error) {
	if l.sem != nil && !l.sem.TryAcquire(1) {
		l.logger.Debug("connection cap reached, waiting for a slot")
		if err := l.sem.Acquire(l.ctx, 1); err != nil {
			return nil, fmt.Errorf("admission: %w", net.ErrClosed)
		}
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(l.ctx); err != nil {
			l.release()
			return nil, fmt.Errorf("admission: %w", net.ErrClosed)
		}
	}

	conn, err := l.Listener.Accept()
	if err != nil {
		l.release()
		return nil, err
	}

	l.inUse.Add(1)
	return &admittedConn{Conn: conn, listener: l}, nil
}

// Close closes the listener and unblocks waiting Accept calls.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.cancel()
		l.closeErr = l.Listener.Close()
	})
	return l.closeErr
}

// InUse returns the number of admitted connections not yet closed.
func (l *Listener) InUse() int {
	return int(l.inUse.Load())
}

func (l *Listener) release() {
	if l.sem != nil {
		l.sem.Release(1)
	}
}

// admittedConn returns its slot on the first Close.
type admittedConn struct {
	net.Conn
	listener *Listener
	once     sync.Once
}

func (c *admittedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() {
		c.listener.inUse.Add(-1)
		c.listener.release()
	})
	return err
}
