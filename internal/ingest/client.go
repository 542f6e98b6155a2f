// Package ingest connects to the upstream trade/quote WebSocket feed,
// authenticates, subscribes to the configured symbol universe, and hands
// decoded trades and quotes off to the dealer engine through bounded
// channels. Reconnection is handled by Supervisor.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls a single connection attempt.
type Config struct {
	URL            string
	APIKey         string
	Symbols        []string // e.g. "O:SPXW*", plus "I:SPX" for the index quote
	SubscribeChunk int
	SubscribeDelay time.Duration
	PingInterval   time.Duration
	ReadTimeout    time.Duration
}

// Sink is where a Client delivers decoded trades and quotes. The
// caller-owned channels here are the "bounded channel between ingest and
// engine" from the concurrency model; Client never buffers beyond what
// the channel itself buffers.
type Sink struct {
	Trades *TradeQueue
	Quotes chan<- QuoteUpdate
}

// Client owns one live WebSocket connection.
type Client struct {
	cfg    Config
	logger *zap.Logger
	connID string
}

// NewClient constructs a Client for one connection attempt.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{cfg: cfg, logger: logger, connID: uuid.NewString()}
}

// Run dials, authenticates, subscribes, and pumps frames into sink until
// ctx is cancelled or the connection fails. It always returns a non-nil
// error; on ctx cancellation after connecting that error is ctx.Err().
func (c *Client) Run(ctx context.Context, sink Sink) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("ingest: dial: %w", err)
	}
	defer conn.Close()

	c.logger.Info("connected", zap.String("conn_id", c.connID), zap.String("url", c.cfg.URL))

	if err := c.authenticate(conn); err != nil {
		return fmt.Errorf("ingest: auth: %w", err)
	}
	if err := c.subscribe(ctx, conn); err != nil {
		return fmt.Errorf("ingest: subscribe: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.readLoop(conn, sink) }()

	pingTicker := time.NewTicker(c.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return ctx.Err()
		case err := <-done:
			return err
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ingest: ping: %w", err)
			}
		}
	}
}

func (c *Client) authenticate(conn *websocket.Conn) error {
	msg := map[string]string{"action": "auth", "key": c.cfg.APIKey}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// subscribe sends subscriptions in chunks to avoid a single oversized
// frame, rate-limited so a large symbol universe never floods the
// connection, followed by a wildcard fallback so a chunking bug never
// leaves the feed silently under-subscribed.
func (c *Client) subscribe(ctx context.Context, conn *websocket.Conn) error {
	chunk := c.cfg.SubscribeChunk
	if chunk <= 0 {
		chunk = 50
	}
	delay := c.cfg.SubscribeDelay
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)

	for i := 0; i < len(c.cfg.Symbols); i += chunk {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		end := i + chunk
		if end > len(c.cfg.Symbols) {
			end = len(c.cfg.Symbols)
		}
		batch := c.cfg.Symbols[i:end]
		msg := map[string]interface{}{"action": "subscribe", "params": batch}
		b, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return err
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	fallback := map[string]interface{}{"action": "subscribe", "params": []string{"T.*", "Q.*"}}
	b, err := json.Marshal(fallback)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Client) readLoop(conn *websocket.Conn, sink Sink) error {
	if c.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		})
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ingest: read: %w", err)
		}
		trades, quotes, err := parseFrames(raw)
		if err != nil {
			c.logger.Warn("parse_failed", zap.Error(err), zap.String("conn_id", c.connID))
			continue
		}
		for _, tr := range trades {
			sink.Trades.Push(tr)
		}
		for _, q := range quotes {
			// Non-blocking: a stalled quote consumer must never stop trade
			// reads off the socket. Quotes are last-writer-wins in the
			// cache, so a drop here just means the next tick overwrites it.
			select {
			case sink.Quotes <- q:
			default:
				c.logger.Warn("quote dropped, sink full", zap.String("symbol", q.Symbol), zap.String("conn_id", c.connID))
			}
		}
	}
}
