package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/pathhint/internal/config"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

func handle(t *testing.T, h router.Handler) *router.Response {
	t.Helper()
	resp, err := h.Handle(context.Background(), &router.Request{Method: "GET", Path: "/x"})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func TestStatic(t *testing.T) {
	t.Parallel()

	resp := handle(t, NewStatic(0, "", []byte("<h1>Home</h1>")))
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, ContentTypeHTML, resp.Header.Get("Content-Type"))
	assert.Equal(t, "<h1>Home</h1>", string(resp.Body))

	resp = handle(t, NewStatic(http.StatusAccepted, "text/plain", []byte("ok")))
	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
}

func TestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body>v1</body></html>"), 0o600))

	h := NewFile(path, 0, "")
	resp := handle(t, h)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(resp.Body), "v1")

	// Read on every request.
	require.NoError(t, os.WriteFile(path, []byte("<html><body>v2</body></html>"), 0o600))
	assert.Contains(t, string(handle(t, h).Body), "v2")

	resp = handle(t, NewFile(path, 0, "text/plain"))
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
}

func TestFile_Missing(t *testing.T) {
	t.Parallel()

	h := NewFile(filepath.Join(t.TempDir(), "missing.html"), 0, "")
	resp, err := h.Handle(context.Background(), &router.Request{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	h, err := NewRedirect("https://example.com/new", 0)
	require.NoError(t, err)

	resp := handle(t, h)
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "https://example.com/new", resp.Header.Get("Location"))
	assert.Contains(t, string(resp.Body), `href="https://example.com/new"`)

	h, err = NewRedirect("/blog", http.StatusMovedPermanently)
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, handle(t, h).Status)
}

func TestRedirect_InvalidLocation(t *testing.T) {
	t.Parallel()

	for _, loc := range []string{"", "blog", "ftp://example.com/x"} {
		_, err := NewRedirect(loc, 0)
		assert.ErrorIs(t, err, util.ErrInvalidInput, loc)
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	h, err := NewJSON(0, map[string]interface{}{"visits": 42, "page": "/blog"})
	require.NoError(t, err)

	resp := handle(t, h)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, ContentTypeJSON, resp.Header.Get("Content-Type"))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	assert.Equal(t, float64(42), got["visits"])
	assert.Equal(t, "/blog", got["page"])

	h, err = NewJSON(0, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(handle(t, h).Body))
}

func TestJSON_Unmarshalable(t *testing.T) {
	t.Parallel()

	_, err := NewJSON(0, map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.HandlerConfig
		want    interface{}
		wantErr bool
	}{
		{name: "static", cfg: config.HandlerConfig{Type: config.HandlerTypeStatic, Body: "x"}, want: &Static{}},
		{name: "file", cfg: config.HandlerConfig{Type: config.HandlerTypeFile, File: "a.html"}, want: &File{}},
		{name: "redirect", cfg: config.HandlerConfig{Type: config.HandlerTypeRedirect, Location: "/a"}, want: &Redirect{}},
		{name: "json", cfg: config.HandlerConfig{Type: config.HandlerTypeJSON}, want: &JSON{}},
		{name: "file without path", cfg: config.HandlerConfig{Type: config.HandlerTypeFile}, wantErr: true},
		{name: "redirect without location", cfg: config.HandlerConfig{Type: config.HandlerTypeRedirect}, wantErr: true},
		{name: "unknown", cfg: config.HandlerConfig{Type: "proxy"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, err := Build(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, util.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, h)
		})
	}
}

func TestBuildEntries(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	entries, err := BuildEntries(cfg.Spec.Routes)
	require.NoError(t, err)
	require.Len(t, entries, len(cfg.Spec.Routes))

	for i, e := range entries {
		assert.Equal(t, cfg.Spec.Routes[i].Path, e.Path)
	}

	table, err := router.NewTable(entries)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())
}

func TestBuildEntries_Error(t *testing.T) {
	t.Parallel()

	_, err := BuildEntries([]config.Route{
		{Path: "/", Handler: config.HandlerConfig{Type: config.HandlerTypeStatic}},
		{Path: "/bad", Handler: config.HandlerConfig{Type: "nope"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrConfigInvalid)
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	assert.Contains(t, err.Error(), "spec.routes[1].handler")
}
