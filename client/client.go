// Package client talks to the entries API over HTTP and websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-entries/auth"
	"github.com/ViniZap4/lumi-entries/autosave"
	"github.com/ViniZap4/lumi-entries/config"
	"github.com/ViniZap4/lumi-entries/domain"
)

var _ autosave.Updater = (*Client)(nil)

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Log     zerolog.Logger

	// ReconnectDelay is how long Watch waits before redialing.
	ReconnectDelay time.Duration
}

func New(cfg config.ClientConfig, log zerolog.Logger) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(cfg.APIURL, "/"),
		Token:          cfg.Token,
		HTTP:           &http.Client{Timeout: cfg.Timeout},
		Log:            log,
		ReconnectDelay: 5 * time.Second,
	}
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Is lets callers test API errors against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrInvalid:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Details string         `json:"details"`
	Entry   *domain.Note   `json:"entry"`
	Entries []*domain.Note `json:"entries"`
}

func (c *Client) List(ctx context.Context) ([]*domain.Note, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/entries", nil, &env); err != nil {
		return nil, err
	}
	return env.Entries, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*domain.Note, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, entryPath(id), nil, &env); err != nil {
		return nil, err
	}
	return env.Entry, nil
}

func (c *Client) Create(ctx context.Context, in domain.NoteInput) (*domain.Note, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/entries", in, &env); err != nil {
		return nil, err
	}
	return env.Entry, nil
}

func (c *Client) Update(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPut, entryPath(id), patch, &env); err != nil {
		return nil, err
	}
	return env.Entry, nil
}

// UpdateEntry is Update under the name the autosave controller expects.
func (c *Client) UpdateEntry(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	return c.Update(ctx, id, patch)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, entryPath(id), nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func entryPath(id int64) string {
	return "/entries/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out *envelope) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set(auth.Header, c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var env envelope
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
			apiErr.Details = env.Details
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		return errors.New("api: response not successful")
	}
	return nil
}
