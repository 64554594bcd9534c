package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/lumi-entries/auth"
	"github.com/ViniZap4/lumi-entries/config"
	"github.com/ViniZap4/lumi-entries/domain"
	api "github.com/ViniZap4/lumi-entries/http"
	"github.com/ViniZap4/lumi-entries/store"
	"github.com/ViniZap4/lumi-entries/ws"
)

type nopHub struct{}

func (nopHub) Broadcast(string, *domain.Note) {}
func (nopHub) Register(ws.Conn)               {}
func (nopHub) HandleConnection(ws.Conn)       {}

// newTestClient serves the real API from a temp SQLite database.
func newTestClient(t *testing.T, tokenHash, token string) *Client {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "entries.sqlite"), true)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	app := api.NewApp(config.ServerConfig{CorsOrigins: "*", TokenHash: tokenHash},
		api.NewServer(st, nopHub{}, zerolog.Nop()))
	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)

	return New(config.ClientConfig{APIURL: srv.URL + "/", Token: token, Timeout: 5 * time.Second}, zerolog.Nop())
}

func TestClientCRUD(t *testing.T) {
	c := newTestClient(t, "", "")
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	created, err := c.Create(ctx, domain.NoteInput{Title: "Groceries", Content: "milk"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "milk", got.Content)

	updated, err := c.UpdateEntry(ctx, created.ID, domain.FullPatch("Groceries", "milk, eggs"))
	require.NoError(t, err)
	assert.Equal(t, "milk, eggs", updated.Content)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "milk, eggs", list[0].Content)

	require.NoError(t, c.Delete(ctx, created.ID))

	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientErrors(t *testing.T) {
	c := newTestClient(t, "", "")
	ctx := context.Background()

	_, err := c.Update(ctx, 1, domain.NotePatch{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "Invalid request data", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	err = c.Delete(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClientToken(t *testing.T) {
	hash, err := auth.HashToken("s3cret")
	require.NoError(t, err)

	_, err = newTestClient(t, hash, "wrong").List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	_, err = newTestClient(t, hash, "s3cret").List(context.Background())
	assert.NoError(t, err)
}

func TestWSURL(t *testing.T) {
	c := &Client{BaseURL: "http://localhost:3000"}
	assert.Equal(t, "ws://localhost:3000/ws", c.wsURL())
	c.BaseURL = "https://notes.example.com/api"
	assert.Equal(t, "wss://notes.example.com/api/ws", c.wsURL())
}
