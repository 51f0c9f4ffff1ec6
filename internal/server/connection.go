package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/pathhint/internal/content"
	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// connState is the lifecycle position of one connection.
type connState int

const (
	stateReading connState = iota
	stateResolving
	stateResponding
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateReading:
		return "reading"
	case stateResolving:
		return "resolving"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// connection is the per-connection handler. It owns conn exclusively.
type connection struct {
	srv     *Server
	conn    net.Conn
	tracked *TrackedConnection
	logger  observability.Logger
	state   connState
}

// handleConnection drives one connection to Closed. The connection is
// closed and untracked on every exit path.
func (s *Server) handleConnection(conn net.Conn) {
	tracked := s.connections.Add(conn)
	s.metrics.ConnectionOpened()

	ctx := context.Background()
	ctx = util.ContextWithConnectionID(ctx, tracked.ID)
	ctx = util.ContextWithStartTime(ctx, tracked.StartTime)

	ctx, span := s.startSpan(ctx, tracked)

	c := &connection{
		srv:     s,
		conn:    NewCountingConn(conn, tracked),
		tracked: tracked,
		logger:  s.logger.WithContext(ctx),
		state:   stateReading,
	}

	defer func() {
		previous := c.state
		c.state = stateClosed

		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.logger.Debug("error closing connection", observability.Error(err))
		}
		s.connections.Remove(tracked.ID)

		bytesIn, bytesOut, duration := tracked.Stats()
		s.metrics.ConnectionClosed(duration)
		c.logger.Debug("connection closed",
			observability.String("remote_addr", tracked.RemoteAddr),
			observability.String("previous_state", previous.String()),
			observability.Int64("bytes_in", bytesIn),
			observability.Int64("bytes_out", bytesOut),
			observability.Duration("duration", duration),
		)
		span.End()
	}()

	c.serve(ctx, span)
}

func (s *Server) startSpan(ctx context.Context, tracked *TrackedConnection) (context.Context, trace.Span) {
	attrs := trace.WithAttributes(
		attribute.String("net.peer.address", tracked.RemoteAddr),
		attribute.String("pathhint.connection_id", tracked.ID),
	)
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.StartSpan(ctx, "connection.handle", attrs, trace.WithSpanKind(trace.SpanKindServer))
}

// serve runs Reading, Resolving and Responding.
func (c *connection) serve(ctx context.Context, span trace.Span) {
	c.logger.Debug("connection opened",
		observability.String("remote_addr", c.tracked.RemoteAddr),
	)

	// Reading
	line, err := readRequestLine(c.conn, c.srv.readBufferSize)
	if err == nil {
		var req *router.Request
		req, err = parseRequestLine(line)
		if err == nil {
			req.RemoteAddr = c.tracked.RemoteAddr
			c.state = stateResolving
			c.resolveAndRespond(ctx, span, req)
			return
		}
	}

	c.dropWithoutResponse(span, err)
}

// dropWithoutResponse ends a connection that never produced a request.
func (c *connection) dropWithoutResponse(span trace.Span, err error) {
	if !errors.Is(err, util.ErrIncompleteRequest) {
		err = util.NewReadError(c.tracked.RemoteAddr, err)
	}
	span.SetAttributes(attribute.Bool("pathhint.responded", false))
	c.recordFailure(c.logger, span, err)
}

// recordFailure counts and logs a failure of this connection. The metric
// and level follow the error kind; an error that is not connection-scoped
// is logged at Error and counted nowhere.
func (c *connection) recordFailure(logger observability.Logger, span trace.Span, err error) {
	span.RecordError(err)
	if !util.IsConnectionScoped(err) {
		span.SetStatus(codes.Error, "unexpected error")
		logger.Error("unexpected connection error", observability.Error(err))
		return
	}

	var handlerErr *util.HandlerError
	var writeErr *util.WriteError
	switch {
	case errors.As(err, &handlerErr):
		c.srv.metrics.RecordHandlerError(handlerErr.Path)
		span.SetStatus(codes.Error, "handler failed")
		logger.Error("handler failed", observability.Error(err))
	case errors.As(err, &writeErr):
		c.srv.metrics.RecordWriteError()
		span.SetStatus(codes.Error, "write failed")
		logger.Warn("response write failed", observability.Error(err))
	default:
		c.srv.metrics.RecordReadError()
		span.SetStatus(codes.Error, "no request")
		logger.Debug("connection dropped without response", observability.Error(err))
	}
}

func (c *connection) resolveAndRespond(ctx context.Context, span trace.Span, req *router.Request) {
	// Resolving
	result := c.srv.resolver.Resolve(req.Path.String())
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.Path.String()),
		attribute.String("pathhint.match", result.Kind.String()),
	)

	var resp *router.Response
	switch result.Kind {
	case router.MatchExact:
		ctx = util.ContextWithRoute(ctx, result.Path.String())
		var err error
		resp, err = c.invoke(ctx, result.Handler, req, result.Path)
		if err != nil {
			c.recordFailure(c.srv.logger.WithContext(ctx), span, err)
			resp = content.ServerError()
		}
	case router.MatchSuggestion:
		span.SetAttributes(attribute.String("pathhint.suggestion", result.Suggestion.String()))
		resp = content.NotFound(result.Suggestion)
	default:
		resp = content.NotFound("")
	}

	// Responding
	c.state = stateResponding
	c.respond(span, result, resp)
}

// invoke runs the route handler and converts failures, including panics
// and nil responses, into *util.HandlerError.
func (c *connection) invoke(
	ctx context.Context,
	h router.Handler,
	req *router.Request,
	route router.RoutePath,
) (resp *router.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("handler panic stack", observability.String("stack", string(debug.Stack())))
			resp = nil
			err = util.NewHandlerError(route.String(), fmt.Errorf("panic: %v", r))
		}
	}()

	resp, err = h.Handle(ctx, req)
	if err != nil {
		return nil, util.NewHandlerError(route.String(), err)
	}
	if resp == nil {
		return nil, util.NewHandlerError(route.String(), errors.New("handler returned no response"))
	}
	return resp, nil
}

func (c *connection) respond(span trace.Span, result router.MatchResult, resp *router.Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.srv.metrics.RecordResponse(status, result.Kind.String(), len(resp.Body))
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	n, err := writeResponse(c.conn, resp)
	if err != nil {
		c.recordFailure(c.logger, span, util.NewWriteError(c.tracked.RemoteAddr, n, err))
		return
	}

	span.SetAttributes(attribute.Bool("pathhint.responded", true))
}
