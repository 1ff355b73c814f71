package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/normanking/facesync/internal/viseme"
)

// wsFrameRequest asks the analyzer service to process the current frame.
type wsFrameRequest struct {
	Type     string `json:"type"`
	Sequence int64  `json:"sequence"`
}

// wsConfigRequest applies an analyzer reconfiguration.
type wsConfigRequest struct {
	Type          string `json:"type"`
	Resolution    int    `json:"resolution"`
	HistoryWindow int    `json:"history_window"`
}

// wsScoresMessage carries viseme scores back from the service.
type wsScoresMessage struct {
	Type     string             `json:"type"`
	Sequence int64              `json:"sequence"`
	Scores   map[string]float32 `json:"scores"`
	Error    string             `json:"error,omitempty"`
}

// WSClient talks to an out-of-process audio analyzer over WebSocket. One
// request/response round trip per frame keeps the protocol synchronous
// with the render loop.
type WSClient struct {
	url    string
	log    zerolog.Logger
	dialer *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	sequence  int64
	last      viseme.Sample
}

var _ Analyzer = (*WSClient)(nil)

// NewWSClient creates a client for the analyzer service at url.
func NewWSClient(url string, connectTimeout time.Duration, log zerolog.Logger) *WSClient {
	return &WSClient{
		url: url,
		log: log.With().Str("component", "analyzer-ws").Logger(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: connectTimeout,
		},
	}
}

// Connect establishes the WebSocket connection.
func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.url, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("audio connect to %s failed (status %d): %w", c.url, resp.StatusCode, err)
		}
		return fmt.Errorf("audio connect to %s failed: %w", c.url, err)
	}

	c.conn = conn
	c.connected = true
	c.log.Info().Str("url", c.url).Msg("analyzer connected")
	return nil
}

// ProcessFrame requests analysis of the current audio frame and caches the
// returned scores.
func (c *WSClient) ProcessFrame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}

	c.sequence++
	req := wsFrameRequest{Type: "frame", Sequence: c.sequence}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		_ = c.conn.SetReadDeadline(deadline)
	}

	if err := c.conn.WriteJSON(req); err != nil {
		c.dropLocked()
		return fmt.Errorf("analyzer frame request: %w", err)
	}

	var msg wsScoresMessage
	if err := c.conn.ReadJSON(&msg); err != nil {
		c.dropLocked()
		return fmt.Errorf("analyzer frame response: %w", err)
	}
	if msg.Error != "" {
		return fmt.Errorf("analyzer processing failed: %s", msg.Error)
	}

	c.last = viseme.Sample(msg.Scores)
	return nil
}

// VisemeScores returns the scores from the last completed frame.
func (c *WSClient) VisemeScores() (viseme.Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, ErrNotConnected
	}
	if len(c.last) == 0 {
		return nil, ErrNoScores
	}
	return c.last, nil
}

// Configure sends a resolution change to the analyzer service.
func (c *WSClient) Configure(resolution, historyWindow int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return ErrNotConnected
	}
	req := wsConfigRequest{Type: "configure", Resolution: resolution, HistoryWindow: historyWindow}
	if err := c.conn.WriteJSON(req); err != nil {
		c.dropLocked()
		return fmt.Errorf("analyzer configure: %w", err)
	}
	c.log.Debug().Int("resolution", resolution).Int("history_window", historyWindow).
		Msg("analyzer reconfigured")
	return nil
}

// Connected reports whether the transport is up.
func (c *WSClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears down the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.connected = false
	return err
}

// dropLocked marks the connection dead after a transport error so the
// recovery machinery reconnects rather than reusing a broken socket.
func (c *WSClient) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.connected = false
}
