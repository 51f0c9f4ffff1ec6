package admission

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/pathhint/internal/config"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln
}

func dial(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type acceptResult struct {
	conn net.Conn
	err  error
}

func acceptAsync(ln net.Listener) <-chan acceptResult {
	ch := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		ch <- acceptResult{conn: conn, err: err}
	}()
	return ch
}

func TestWrap_Disabled(t *testing.T) {
	t.Parallel()

	ln := listen(t)
	assert.Same(t, ln, Wrap(ln, nil))
	assert.Same(t, ln, Wrap(ln, &config.AdmissionConfig{}))
	assert.IsType(t, &Listener{}, Wrap(ln, &config.AdmissionConfig{MaxConnections: 1}))
}

func TestListener_MaxConnections(t *testing.T) {
	t.Parallel()

	l := New(listen(t), config.AdmissionConfig{MaxConnections: 1})

	dial(t, l)
	dial(t, l)

	first, err := l.Accept()
	require.NoError(t, err)
	assert.Equal(t, 1, l.InUse())

	pending := acceptAsync(l)
	select {
	case <-pending:
		t.Fatal("second connection admitted while the cap is reached")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, first.Close())
	// Closing twice releases once.
	_ = first.Close()

	select {
	case res := <-pending:
		require.NoError(t, res.err)
		assert.Equal(t, 1, l.InUse())
		require.NoError(t, res.conn.Close())
	case <-time.After(5 * time.Second):
		t.Fatal("slot was not released")
	}
	assert.Equal(t, 0, l.InUse())
}

func TestListener_AcceptRate(t *testing.T) {
	t.Parallel()

	l := New(listen(t), config.AdmissionConfig{AcceptRate: 10, AcceptBurst: 1})

	for i := 0; i < 3; i++ {
		dial(t, l)
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		conn, err := l.Accept()
		require.NoError(t, err)
		_ = conn.Close()
	}

	// Two waits of 100ms after the initial burst token.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestListener_CloseUnblocksAccept(t *testing.T) {
	t.Parallel()

	l := New(listen(t), config.AdmissionConfig{MaxConnections: 1})

	dial(t, l)
	held, err := l.Accept()
	require.NoError(t, err)
	defer held.Close()

	pending := acceptAsync(l)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	select {
	case res := <-pending:
		assert.True(t, errors.Is(res.err, net.ErrClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("Accept did not return after Close")
	}
}

func TestListener_AcceptErrorReleasesSlot(t *testing.T) {
	t.Parallel()

	inner := listen(t)
	l := New(inner, config.AdmissionConfig{MaxConnections: 1})
	require.NoError(t, inner.Close())

	for i := 0; i < 3; i++ {
		_, err := l.Accept()
		require.Error(t, err)
	}
	assert.Equal(t, 0, l.InUse())
}
