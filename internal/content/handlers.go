package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vyrodovalexey/pathhint/internal/config"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// Content types.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json"
)

// Static serves a fixed body.
type Static struct {
	status      int
	contentType string
	body        []byte
}

// NewStatic creates a static handler. Zero status means 200 and an empty
// content type means HTML.
func NewStatic(status int, contentType string, body []byte) *Static {
	return &Static{
		status:      orDefault(status, http.StatusOK),
		contentType: orDefaultType(contentType, ContentTypeHTML),
		body:        body,
	}
}

// Handle implements router.Handler.
func (s *Static) Handle(_ context.Context, _ *router.Request) (*router.Response, error) {
	return router.NewResponse(s.status, s.contentType, s.body), nil
}

// File serves the contents of a file read on every request, so edits are
// visible without a restart. A read failure is a handler error.
type File struct {
	path        string
	status      int
	contentType string
}

// NewFile creates a file handler. When contentType is empty it is
// detected from the file content.
func NewFile(path string, status int, contentType string) *File {
	return &File{
		path:        path,
		status:      orDefault(status, http.StatusOK),
		contentType: contentType,
	}
}

// Handle implements router.Handler.
func (f *File) Handle(_ context.Context, _ *router.Request) (*router.Response, error) {
	body, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	contentType := f.contentType
	if contentType == "" {
		contentType = mimetype.Detect(body).String()
	}

	return router.NewResponse(f.status, contentType, body), nil
}

// Redirect answers with a Location header and a short HTML body.
type Redirect struct {
	location string
	status   int
}

// NewRedirect creates a redirect handler. Zero status means 302.
func NewRedirect(location string, status int) (*Redirect, error) {
	if err := util.ValidateRedirectLocation(location); err != nil {
		return nil, fmt.Errorf("%w: %w", util.ErrInvalidInput, err)
	}
	return &Redirect{
		location: location,
		status:   orDefault(status, http.StatusFound),
	}, nil
}

// Handle implements router.Handler.
func (r *Redirect) Handle(_ context.Context, _ *router.Request) (*router.Response, error) {
	resp := router.NewResponse(r.status, ContentTypeHTML, redirectPage(r.location))
	resp.Header.Set("Location", r.location)
	return resp, nil
}

// JSON serves a document serialized once at construction.
type JSON struct {
	status int
	body   []byte
}

// NewJSON creates a json handler.
func NewJSON(status int, data map[string]interface{}) (*JSON, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal json body: %w", err)
	}
	return &JSON{
		status: orDefault(status, http.StatusOK),
		body:   body,
	}, nil
}

// Handle implements router.Handler.
func (j *JSON) Handle(_ context.Context, _ *router.Request) (*router.Response, error) {
	return router.NewResponse(j.status, ContentTypeJSON, j.body), nil
}

// Build creates the handler described by cfg.
func Build(cfg config.HandlerConfig) (router.Handler, error) {
	switch cfg.Type {
	case config.HandlerTypeStatic:
		return NewStatic(cfg.Status, cfg.ContentType, []byte(cfg.Body)), nil
	case config.HandlerTypeFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("%w: file handler requires a file", util.ErrInvalidInput)
		}
		return NewFile(cfg.File, cfg.Status, cfg.ContentType), nil
	case config.HandlerTypeRedirect:
		return NewRedirect(cfg.Location, cfg.Status)
	case config.HandlerTypeJSON:
		return NewJSON(cfg.Status, cfg.Data)
	default:
		return nil, fmt.Errorf("%w: unknown handler type %q", util.ErrInvalidInput, cfg.Type)
	}
}

// BuildEntries creates route table entries for routes, preserving order.
func BuildEntries(routes []config.Route) ([]router.Entry, error) {
	entries := make([]router.Entry, 0, len(routes))
	for i, route := range routes {
		h, err := Build(route.Handler)
		if err != nil {
			return nil, util.NewConfigErrorWithCause(
				fmt.Sprintf("spec.routes[%d].handler", i), "cannot build handler", err)
		}
		entries = append(entries, router.Entry{Path: route.Path, Handler: h})
	}
	return entries, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultType(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
