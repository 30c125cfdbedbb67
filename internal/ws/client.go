package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendQueueSize = 32
)

var (
	ErrClientClosed = errors.New("ws: client closed")
	ErrSlowClient   = errors.New("ws: send queue full")
)

// Client wraps one websocket connection. Send only queues; a single writer
// goroutine owns every write to the connection, pings included.
type Client struct {
	conn   *websocket.Conn
	log    *zap.Logger
	send   chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewClient starts the client's writer. The connection is closed once
// Close is called or a write fails.
func NewClient(conn *websocket.Conn, logger *zap.Logger) *Client {
	c := &Client{
		conn:   conn,
		log:    logger,
		send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Send queues a text frame without blocking.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.closed:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close stops the writer. Frames already queued are flushed before the
// close frame.
func (c *Client) Close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.write(payload); err != nil {
				c.log.Warn("websocket send failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Close()
				return
			}
		case <-c.closed:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (c *Client) write(payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Client) flush() {
	for {
		select {
		case payload := <-c.send:
			if err := c.write(payload); err != nil {
				return
			}
		default:
			return
		}
	}
}

// Serve keeps the connection alive until the peer goes away or the client
// is closed. Subscribers never send anything meaningful; inbound frames are
// read and discarded so control frames get processed.
func (c *Client) Serve() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
	}
}
