package server

import (
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/pathhint/internal/observability"
)

// ConnectionTracker records every connection between accept and close.
// It has no capacity and never refuses a connection.
type ConnectionTracker struct {
	live   sync.Map // id -> *TrackedConnection
	count  atomic.Int64
	logger observability.Logger
}

// TrackedConnection identifies one accepted connection and counts the
// bytes that crossed it.
type TrackedConnection struct {
	ID         string
	RemoteAddr string
	LocalAddr  string
	StartTime  time.Time

	bytesIn  atomic.Int64
	bytesOut atomic.Int64
}

// NewConnectionTracker returns an empty tracker. A nil logger discards.
func NewConnectionTracker(logger observability.Logger) *ConnectionTracker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ConnectionTracker{logger: logger}
}

// Add registers conn under a fresh uuid.
func (t *ConnectionTracker) Add(conn net.Conn) *TrackedConnection {
	tc := &TrackedConnection{
		ID:         uuid.NewString(),
		RemoteAddr: addrString(conn.RemoteAddr()),
		LocalAddr:  addrString(conn.LocalAddr()),
		StartTime:  time.Now(),
	}

	t.live.Store(tc.ID, tc)
	live := t.count.Add(1)

	t.logger.Debug("connection tracked",
		observability.String("connection_id", tc.ID),
		observability.String("remote_addr", tc.RemoteAddr),
		observability.Int64("live", live),
	)
	return tc
}

// Remove forgets id. Unknown or already removed ids are ignored, so the
// count never goes negative.
func (t *ConnectionTracker) Remove(id string) {
	if _, ok := t.live.LoadAndDelete(id); !ok {
		return
	}
	live := t.count.Add(-1)
	t.logger.Debug("connection untracked",
		observability.String("connection_id", id),
		observability.Int64("live", live),
	)
}

// Get returns the live connection with id, or nil.
func (t *ConnectionTracker) Get(id string) *TrackedConnection {
	v, ok := t.live.Load(id)
	if !ok {
		return nil
	}
	return v.(*TrackedConnection)
}

// Count returns the number of live connections.
func (t *ConnectionTracker) Count() int {
	return int(t.count.Load())
}

// List returns the live connections, oldest first.
func (t *ConnectionTracker) List() []*TrackedConnection {
	var out []*TrackedConnection
	t.live.Range(func(_, v interface{}) bool {
		out = append(out, v.(*TrackedConnection))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Stats returns bytes read, bytes written and time since accept.
func (tc *TrackedConnection) Stats() (bytesIn, bytesOut int64, age time.Duration) {
	return tc.bytesIn.Load(), tc.bytesOut.Load(), time.Since(tc.StartTime)
}

// CountingConn is a net.Conn that adds the bytes it moves to a
// TrackedConnection.
type CountingConn struct {
	net.Conn
	tc *TrackedConnection
}

// NewCountingConn wraps conn. tc may be nil.
func NewCountingConn(conn net.Conn, tc *TrackedConnection) *CountingConn {
	return &CountingConn{Conn: conn, tc: tc}
}

func (c *CountingConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if c.tc != nil && n > 0 {
		c.tc.bytesIn.Add(int64(n))
	}
	return n, err
}

func (c *CountingConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if c.tc != nil && n > 0 {
		c.tc.bytesOut.Add(int64(n))
	}
	return n, err
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
