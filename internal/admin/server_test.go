package admin

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/router"
	"github.com/vyrodovalexey/pathhint/internal/server"
)

type fakeListener struct {
	addr    net.Addr
	active  int
	tracker *server.ConnectionTracker
}

func (f *fakeListener) Addr() net.Addr         { return f.addr }
func (f *fakeListener) ActiveConnections() int { return f.active }

func (f *fakeListener) Connections() []*server.TrackedConnection {
	if f.tracker == nil {
		return nil
	}
	return f.tracker.List()
}

func (f *fakeListener) Connection(id string) *server.TrackedConnection {
	if f.tracker == nil {
		return nil
	}
	return f.tracker.Get(id)
}

func testTable(t *testing.T) *router.Table {
	t.Helper()

	ok := router.HandlerFunc(func(context.Context, *router.Request) (*router.Response, error) {
		return router.NewResponse(http.StatusOK, "", nil), nil
	})
	table, err := router.NewTable([]router.Entry{
		{Path: "/", Handler: ok},
		{Path: "/about", Handler: ok},
		{Path: "/blog", Handler: ok},
	})
	require.NoError(t, err)
	return table
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := New("127.0.0.1:0", nil, nil, nil, WithVersion("1.2.3"))

	rec := serve(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.Uptime)
}

func TestReady(t *testing.T) {
	t.Parallel()

	listener := &fakeListener{}
	s := New("127.0.0.1:0", listener, nil, nil)

	rec := serve(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	listener.addr = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7878}
	listener.active = 4

	rec = serve(t, s, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "127.0.0.1:7878", resp.ListenAddress)
	assert.Equal(t, 4, resp.ActiveConnections)
}

func TestConnections(t *testing.T) {
	t.Parallel()

	tracker := server.NewConnectionTracker(nil)
	client, srv := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = srv.Close()
	})
	tracked := tracker.Add(srv)

	s := New("127.0.0.1:0", &fakeListener{tracker: tracker}, nil, nil)

	rec := serve(t, s, "/connections")
	require.Equal(t, http.StatusOK, rec.Code)

	var list ConnectionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Connections, 1)
	assert.Equal(t, tracked.ID, list.Connections[0].ID)
	assert.Equal(t, tracked.RemoteAddr, list.Connections[0].RemoteAddr)

	rec = serve(t, s, "/connections/"+tracked.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	var one ConnectionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, tracked.ID, one.ID)
	assert.NotEmpty(t, one.Age)

	tracker.Remove(tracked.ID)
	rec = serve(t, s, "/connections/"+tracked.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, s, "/connections")
	assert.JSONEq(t, `{"count":0,"connections":[]}`, rec.Body.String())
}

func TestConnections_NoListener(t *testing.T) {
	t.Parallel()

	s := New("127.0.0.1:0", nil, nil, nil)

	rec := serve(t, s, "/connections")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"connections":[]}`, rec.Body.String())

	rec = serve(t, s, "/connections/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	s := New("127.0.0.1:0", nil, testTable(t), nil)

	rec := serve(t, s, "/routes")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RoutesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"/", "/about", "/blog"}, resp.Routes)
	assert.Equal(t, router.SuggestionThreshold, resp.SuggestionThreshold)

	rec = serve(t, New("127.0.0.1:0", nil, nil, nil), "/routes")
	assert.JSONEq(t, `{"routes":[],"suggestionThreshold":3}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("admintest")
	metrics.ConnectionOpened()

	s := New("127.0.0.1:0", nil, nil, metrics)
	rec := serve(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admintest_connections_accepted_total 1")

	rec = serve(t, New("127.0.0.1:0", nil, nil, nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListenServeStop(t *testing.T) {
	t.Parallel()

	s := New("127.0.0.1:0", nil, testTable(t), nil)
	assert.Nil(t, s.Addr())
	require.NoError(t, s.Listen(context.Background()))

	served := make(chan error, 1)
	go func() { served <- s.Serve() }()

	resp, err := http.Get("http://" + s.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	t.Parallel()

	s := New("127.0.0.1:0", nil, nil, nil)
	assert.Error(t, s.Serve())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestServer_ListenError(t *testing.T) {
	t.Parallel()

	assert.Error(t, New("bogus", nil, nil, nil).Listen(context.Background()))
}
