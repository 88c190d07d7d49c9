package socialfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConfig configures feed client behavior.
type ClientConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SweepInterval is how often expired mentions are dropped.
	SweepInterval time.Duration
	// OnMention, when set, is called once per accepted mention.
	OnMention func()
}

// DefaultClientConfig returns default feed client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SweepInterval:     10 * time.Minute,
	}
}

// Client consumes a mention firehose over WebSocket and feeds a Window. It
// reconnects with exponential backoff and resubscribes after reconnect.
type Client struct {
	endpoint string
	config   ClientConfig
	window   *Window
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewClient creates a feed client, connects and starts its loops.
func NewClient(ctx context.Context, endpoint string, window *Window, logger *log.Logger, config *ClientConfig) (*Client, error) {
	cfg := DefaultClientConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		window:   window,
		logger:   logger,
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	c.wg.Add(1)
	go c.sweepLoop()

	return c, nil
}

// connect establishes the WebSocket connection and subscribes to the mention
// stream.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	sub := map[string]string{"action": "subscribe", "channel": "mentions"}
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	c.conn = conn
	return nil
}

// Close closes the connection and stops all loops.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads mention messages and feeds the window.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect waits for the backoff delay, then dials and resubscribes.
func (c *Client) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logf("reconnect failed: %v", err)
		return
	}
	c.logf("reconnected to mention feed")
}

// handleMessage parses one feed message. Non-mention frames (acks,
// heartbeats) are ignored.
func (c *Client) handleMessage(message []byte) {
	var m Mention
	if err := json.Unmarshal(message, &m); err != nil {
		return
	}
	if m.TokenAddress == "" && m.Symbol == "" {
		return
	}
	if m.PostedAt == 0 {
		m.PostedAt = time.Now().Unix()
	}
	c.window.Add(m)
	if c.config.OnMention != nil {
		c.config.OnMention()
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}

// sweepLoop periodically drops expired mentions.
func (c *Client) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.window.Sweep()
		}
	}
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
