// Package vapi implements the voice.Client contract over the provider's
// realtime websocket API.
package vapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/velvoice/companiond/pkg/voice"
)

// Config configures the provider connection.
type Config struct {
	URL    string
	APIKey string
	Log    *zap.Logger
}

// frame is the provider's websocket envelope, both directions.
type frame struct {
	Type      string                 `json:"type,omitempty"`  // outbound commands: start, stop, control
	Event     string                 `json:"event,omitempty"` // inbound events
	CallID    string                 `json:"callId,omitempty"`
	Assistant *voice.AssistantConfig `json:"assistant,omitempty"`
	Overrides *voice.StartOptions    `json:"assistantOverrides,omitempty"`
	Message   *voice.Message         `json:"message,omitempty"`
	Muted     *bool                  `json:"muted,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Client is a websocket-backed realtime provider client. One Client carries
// at most one call; Stop is idempotent and safe to call with no call open.
type Client struct {
	voice.Emitter

	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	callID string
	muted  bool
	ended  bool
}

// New creates a client. No connection is opened until Start.
func New(cfg Config) *Client {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{cfg: cfg, log: log}
}

// Start dials the provider and issues the start command. Provider events are
// read on a background goroutine and fanned out to registered handlers.
func (c *Client) Start(ctx context.Context, assistant voice.AssistantConfig, opts voice.StartOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return errors.New("vapi: call already in progress")
	}

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("vapi: dial %s: status %d: %w", c.cfg.URL, resp.StatusCode, err)
		}
		return fmt.Errorf("vapi: dial %s: %w", c.cfg.URL, err)
	}

	callID := uuid.NewString()
	start := frame{
		Type:      "start",
		CallID:    callID,
		Assistant: &assistant,
		Overrides: &opts,
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return fmt.Errorf("vapi: start command: %w", err)
	}

	c.conn = conn
	c.callID = callID
	c.ended = false
	go c.readLoop(conn)
	return nil
}

// Stop issues the stop command and closes the connection. Calling Stop with
// no call open is a no-op.
func (c *Client) Stop() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	// Best effort; the close below releases the call either way.
	if err := conn.WriteJSON(frame{Type: "stop"}); err != nil {
		c.log.Debug("stop command write failed", zap.Error(err))
	}
	err := conn.Close()

	// The provider confirms a stop with its own call-end, but the read loop
	// is already torn down at this point. Deliver the terminal event locally
	// so state machines observe the call ending on user-initiated stops too.
	c.emitCallEnd()
	return err
}

// emitCallEnd delivers call-end to handlers at most once per call,
// whichever of the provider frame, a connection drop or a local Stop
// happens first.
func (c *Client) emitCallEnd() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	c.ended = true
	c.mu.Unlock()
	c.Emit(voice.Event{Type: voice.EventCallEnd})
}

// Muted reports the last mute state commanded on this client.
func (c *Client) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// SetMuted commands the provider-side microphone mute and mirrors it locally.
func (c *Client) SetMuted(muted bool) {
	c.mu.Lock()
	conn := c.conn
	c.muted = muted
	c.mu.Unlock()
	if conn != nil {
		if err := conn.WriteJSON(frame{Type: "control", Muted: &muted}); err != nil {
			c.log.Debug("mute command write failed", zap.Error(err))
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			c.mu.Lock()
			stopped := c.conn == nil
			c.mu.Unlock()
			if !stopped {
				// Connection dropped under us: surface the error, then end
				// the call so state machines observe a terminal event.
				c.Emit(voice.Event{Type: voice.EventError, Err: err})
				c.emitCallEnd()
				c.mu.Lock()
				c.conn = nil
				c.mu.Unlock()
				conn.Close()
			}
			return
		}
		c.dispatch(f)
	}
}

func (c *Client) dispatch(f frame) {
	switch voice.EventType(f.Event) {
	case voice.EventCallStart:
		c.Emit(voice.Event{Type: voice.EventCallStart})
	case voice.EventCallEnd:
		c.emitCallEnd()
	case voice.EventMessage:
		c.Emit(voice.Event{Type: voice.EventMessage, Message: f.Message})
	case voice.EventSpeechStart:
		c.Emit(voice.Event{Type: voice.EventSpeechStart})
	case voice.EventSpeechEnd:
		c.Emit(voice.Event{Type: voice.EventSpeechEnd})
	case voice.EventError:
		c.Emit(voice.Event{Type: voice.EventError, Err: errors.New(f.Error)})
	default:
		c.log.Debug("unknown provider event", zap.String("event", f.Event))
	}
}
