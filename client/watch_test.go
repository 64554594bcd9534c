package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-entries/auth"
	"github.com/ViniZap4/lumi-entries/domain"
	"github.com/ViniZap4/lumi-entries/ws"
)

// eventServer sends one event per connection and then hangs up, so every
// event after the first arrives over a reconnect.
func eventServer(t *testing.T, tokens chan<- string) *httptest.Server {
	var conns atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.Header.Get(auth.Header)
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var sub map[string]string
		if err := wsjson.Read(ctx, conn, &sub); err != nil || sub["type"] != "subscribe" {
			return
		}
		n := conns.Add(1)
		_ = wsjson.Write(ctx, conn, ws.Message{Type: ws.EntryUpdated, Entry: &domain.Note{ID: n}})
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWatchReconnects(t *testing.T) {
	tokens := make(chan string, 16)
	srv := eventServer(t, tokens)
	c := &Client{BaseURL: srv.URL, Token: "s3cret", Log: zerolog.Nop(), ReconnectDelay: 10 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []int64
	err := c.Watch(ctx, func(msg ws.Message) {
		assert.Equal(t, ws.EntryUpdated, msg.Type)
		got = append(got, msg.Entry.ID)
		if len(got) == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{1, 2}, got)
	require.NotEmpty(t, tokens)
	assert.Equal(t, "s3cret", <-tokens)
}

func TestWatchStopsWhileWaiting(t *testing.T) {
	c := &Client{BaseURL: "http://127.0.0.1:1", Log: zerolog.Nop(), ReconnectDelay: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Watch(ctx, func(ws.Message) { t.Fatal("unexpected event") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
