// Package channel maintains the persistent push connection that keeps the
// local store in step with the backend: full snapshots plus change events,
// reconnecting forever with a fixed delay unless the backend rejects the
// credential outright.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/api"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/common"
	"github.com/underflow1/ce-guests-front-sub000/internal/logging"
	"github.com/underflow1/ce-guests-front-sub000/internal/metrics"
)

const (
	// DefaultReconnectDelay is the fixed pause between a close and the next
	// connect attempt. No backoff: the cost of a spare dial every 1.5 s is
	// below the complexity of tuning one.
	DefaultReconnectDelay = 1500 * time.Millisecond

	// DefaultReadyTimeout caps how long the application waits for the first
	// open before rendering anyway.
	DefaultReadyTimeout = 3 * time.Second
)

// Handler consumes inbound change events in arrival order. It runs on the
// read loop goroutine: the next frame is not read until the handler
// returns, which is what guarantees snapshots apply in order.
type Handler func(ctx context.Context, ev models.ChangeEvent)

type Config struct {
	// URL is the websocket endpoint, ws:// or wss://.
	URL            string
	ReconnectDelay time.Duration
	ReadyTimeout   time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ReconnectDelay <= 0 {
		out.ReconnectDelay = DefaultReconnectDelay
	}
	if out.ReadyTimeout <= 0 {
		out.ReadyTimeout = DefaultReadyTimeout
	}
	return out
}

// DeriveURL maps the REST base URL to the websocket endpoint.
func DeriveURL(apiBaseURL string) string {
	url := apiBaseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimSuffix(url, "/") + "/ws"
}

// Channel is the client side of the sync connection.
type Channel struct {
	cfg      Config
	tokens   api.TokenSource
	handler  Handler
	log      logging.Logger
	metrics  *metrics.Metrics
	clientID string

	readyOnce sync.Once
	ready     chan struct{}

	invalidOnce sync.Once
	invalid     chan struct{}
}

func New(cfg Config, tokens api.TokenSource, handler Handler, log logging.Logger, m *metrics.Metrics) *Channel {
	return &Channel{
		cfg:      cfg.withDefaults(),
		tokens:   tokens,
		handler:  handler,
		log:      log,
		metrics:  m,
		clientID: uuid.NewString(),
		ready:    make(chan struct{}),
		invalid:  make(chan struct{}),
	}
}

// SessionInvalid is closed when the backend rejected the credential on the
// channel; the surrounding session layer must re-authenticate.
func (c *Channel) SessionInvalid() <-chan struct{} { return c.invalid }

// WaitReady blocks until the channel first opens or the grace timeout
// elapses, whichever comes first. It reports whether the channel actually
// opened. Readiness is never revoked afterwards; a later drop reconnects in
// the background.
func (c *Channel) WaitReady(ctx context.Context) bool {
	timer := time.NewTimer(c.cfg.ReadyTimeout)
	defer timer.Stop()

	select {
	case <-c.ready:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Run connects and keeps the channel alive until ctx is cancelled or the
// credential is rejected.
func (c *Channel) Run(ctx context.Context) error {
	attempt := 0
	for {
		if attempt > 0 {
			c.metrics.Reconnects.Inc()
			select {
			case <-time.After(c.cfg.ReconnectDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		attempt++

		err := c.runOnce(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, common.ErrSessionExpired):
			c.invalidOnce.Do(func() { close(c.invalid) })
			c.log.Warn(ctx, "sync channel closed by auth rejection, giving up")
			return err
		default:
			// Transient drop: silent, fixed-delay retry.
			c.log.Debug(ctx, "sync channel dropped", "error", err, "attempt", attempt)
		}
	}
}

func (c *Channel) runOnce(ctx context.Context) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s?token=%s&client_id=%s", c.cfg.URL, token, c.clientID)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return common.ErrSessionExpired
		}
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer conn.Close()

	c.log.Info(ctx, "sync channel open", "client_id", c.clientID)
	c.readyOnce.Do(func() { close(c.ready) })

	// Close the connection when ctx dies so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == common.AuthRejectedCloseCode {
				return common.ErrSessionExpired
			}
			return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
		}

		if err := c.handleFrame(ctx, conn, payload); err != nil {
			c.log.Warn(ctx, "dropping malformed frame", "error", err)
		}
	}
}

// probe is the application-level keepalive the server may send instead of
// a websocket ping.
type probe struct {
	Type string `json:"type"`
}

func (c *Channel) handleFrame(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	var p probe
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}
	if p.Type == "ping" {
		// Answer immediately on the same connection; no semantic effect on
		// entry data.
		return conn.WriteJSON(probe{Type: "pong"})
	}

	var ev models.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}

	c.metrics.FramesReceived.Inc()
	c.handler(ctx, ev)
	return nil
}
