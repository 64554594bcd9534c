package ws

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-entries/domain"
)

type fakeConn struct {
	mu       sync.Mutex
	written  []Message
	writeErr error
	closed   bool

	incoming chan map[string]any
	got      chan Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan map[string]any), got: make(chan Message, 16)}
}

func (c *fakeConn) ReadJSON(v any) error {
	msg, ok := <-c.incoming
	if !ok {
		return io.EOF
	}
	*(v.(*map[string]any)) = msg
	return nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	msg := v.(Message)
	c.written = append(c.written, msg)
	c.got <- msg
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) next(t *testing.T) Message {
	t.Helper()
	select {
	case msg := <-c.got:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHubBroadcast(t *testing.T) {
	hub, _ := startHub(t)
	a, b := newFakeConn(), newFakeConn()
	hub.Register(a)
	hub.Register(b)

	note := &domain.Note{ID: 3, Title: "hello"}
	hub.Broadcast(EntryUpdated, note)

	for _, conn := range []*fakeConn{a, b} {
		msg := conn.next(t)
		assert.Equal(t, EntryUpdated, msg.Type)
		assert.Equal(t, note, msg.Entry)
	}
}

func TestHubDropsFailingClient(t *testing.T) {
	hub, _ := startHub(t)
	bad, good := newFakeConn(), newFakeConn()
	bad.writeErr = errors.New("broken pipe")
	hub.Register(bad)
	hub.Register(good)

	hub.Broadcast(EntryCreated, &domain.Note{ID: 1})
	good.next(t)
	hub.Broadcast(EntryDeleted, &domain.Note{ID: 1})
	good.next(t)

	assert.True(t, bad.isClosed())
	assert.False(t, good.isClosed())
}

func TestHandleConnectionUnregistersOnEOF(t *testing.T) {
	hub, _ := startHub(t)
	conn := newFakeConn()
	hub.Register(conn)

	done := make(chan struct{})
	go func() {
		hub.HandleConnection(conn)
		close(done)
	}()
	conn.incoming <- map[string]any{"type": "subscribe"}
	close(conn.incoming)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleConnection did not return")
	}
	require.Eventually(t, conn.isClosed, 2*time.Second, 10*time.Millisecond)
}

func TestHubStopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	conn := newFakeConn()
	hub.Register(conn)

	cancel()
	require.Eventually(t, conn.isClosed, 2*time.Second, 10*time.Millisecond)

	// Register and Unregister must not block once the hub stopped.
	late := newFakeConn()
	hub.Register(late)
	hub.Unregister(late)
	assert.True(t, late.isClosed())
}
