package router

import (
	"context"
	"net/http"
)

// Request is the part of an incoming request visible to route handlers.
type Request struct {
	Method     string
	Path       RoutePath
	RawQuery   string
	Proto      string
	RemoteAddr string
}

// Response is what a route handler produces. A zero Status means 200.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates a response with the given status, content type and body.
func NewResponse(status int, contentType string, body []byte) *Response {
	resp := &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

// Handler produces the response for a request whose path matched a route.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handle calls f(ctx, req).
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
