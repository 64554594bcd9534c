// client/watch.go
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ViniZap4/lumi-entries/auth"
	"github.com/ViniZap4/lumi-entries/ws"
)

// Watch streams entry events to fn until ctx is done, redialing after
// ReconnectDelay whenever the connection drops. It returns ctx.Err().
func (c *Client) Watch(ctx context.Context, fn func(ws.Message)) error {
	for {
		err := c.watchOnce(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn().Err(err).Dur("retry_in", c.ReconnectDelay).Msg("websocket connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.ReconnectDelay):
		}
	}
}

func (c *Client) watchOnce(ctx context.Context, fn func(ws.Message)) error {
	opts := &websocket.DialOptions{}
	if c.Token != "" {
		opts.HTTPHeader = http.Header{auth.Header: []string{c.Token}}
	}

	conn, _, err := websocket.Dial(ctx, c.wsURL(), opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	c.Log.Info().Str("url", c.wsURL()).Msg("watching entries")
	if err := wsjson.Write(ctx, conn, map[string]string{"type": "subscribe"}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		var msg ws.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}
		fn(msg)
	}
}

func (c *Client) wsURL() string {
	u := c.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
