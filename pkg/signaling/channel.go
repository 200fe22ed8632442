package signaling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Send after the channel has been closed.
// Sending on a closed channel is a reported error, never a silent drop.
var ErrClosed = errors.New("signaling: channel closed")

// Incoming is one received message or a terminal receive error.
type Incoming struct {
	Msg *Message
	Err error
}

// Conn is a connected signaling channel scoped to one call session.
type Conn interface {
	// Send serializes and transmits one message.
	Send(ctx context.Context, msg *Message) error

	// Messages returns the ordered stream of incoming messages. The
	// channel is closed after a terminal error or Close.
	Messages() <-chan Incoming

	// Close closes the channel. Idempotent.
	Close() error
}

// Dialer opens a signaling channel for a session.
type Dialer interface {
	Dial(ctx context.Context, sessionID string) (Conn, error)
}

// WebSocketDialer dials the gateway over a websocket.
type WebSocketDialer struct {
	// URL is the gateway websocket endpoint (ws:// or wss://).
	URL string

	// Header is sent with the handshake request (e.g. authorization).
	Header http.Header

	// HandshakeTimeout bounds the dial. Defaults to 10s.
	HandshakeTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context, sessionID string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	endpoint := fmt.Sprintf("%s?session=%s", d.URL, url.QueryEscape(sessionID))
	conn, resp, err := dialer.DialContext(ctx, endpoint, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("signaling: failed to connect (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("signaling: failed to connect: %w", err)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &wsChannel{
		conn:     conn,
		logger:   logger,
		closeCh:  make(chan struct{}),
		incoming: make(chan Incoming, 32),
	}
	go ch.readLoop()
	return ch, nil
}

// wsChannel is a websocket-backed Conn.
type wsChannel struct {
	conn      *websocket.Conn
	logger    *slog.Logger
	closeCh   chan struct{}
	incoming  chan Incoming
	closeOnce sync.Once

	mu     sync.Mutex // serializes writes
	closed bool
}

func (c *wsChannel) Send(ctx context.Context, msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("signaling: sending frame", "type", msg.Type, "audio_bytes", len(msg.Audio))
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("signaling: send: %w", err)
	}
	return nil
}

func (c *wsChannel) Messages() <-chan Incoming {
	return c.incoming
}

func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *wsChannel) readLoop() {
	defer close(c.incoming)

	for {
		select {
		case <-c.closeCh:
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeCh:
			case c.incoming <- Incoming{Err: fmt.Errorf("signaling: read: %w", err)}:
			}
			return
		}

		if c.logger.Enabled(context.Background(), slog.LevelDebug) {
			s := string(raw)
			if len(s) > 500 {
				s = s[:500] + "..."
			}
			c.logger.Debug("signaling: received frame", "len", len(raw), "content", s)
		}

		msg, err := ParseMessage(raw)
		if err != nil {
			select {
			case <-c.closeCh:
				return
			case c.incoming <- Incoming{Err: err}:
			}
			continue
		}

		select {
		case <-c.closeCh:
			return
		case c.incoming <- Incoming{Msg: msg}:
		}
	}
}

var _ Conn = (*wsChannel)(nil)
