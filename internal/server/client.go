// Package server manages individual WebSocket connections, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/session"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var (
	// ErrClientClosed is returned by Send once the connection is shutting down.
	ErrClientClosed = errors.New("client connection closed")

	// ErrSendBufferFull is returned by Send when the peer is not draining its
	// frames fast enough. The connection is closed as a consequence.
	ErrSendBufferFull = errors.New("client send buffer full")
)

// outbound is one queued frame with its WebSocket message type.
type outbound struct {
	messageType int
	data        []byte
}

// FrameHandler consumes the inbound frames of one connection. Join is called
// once before the first frame, Close once after the last.
type FrameHandler interface {
	Join() error
	HandleFrame(frame []byte) error
	Close() bool
}

// typedFrameHandler is implemented by handlers that need the WebSocket message
// type of each inbound frame.
type typedFrameHandler interface {
	HandleTypedFrame(messageType int, frame []byte) error
}

// Client is one WebSocket connection. It is the transport a room broadcasts
// to: Send only enqueues, the write pump does the network I/O.
type Client struct {
	conn           *websocket.Conn
	hub            *Hub
	addr           string
	send           chan outbound
	handler        FrameHandler
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig

	mu     sync.Mutex
	closed bool
}

// NewClient creates a Client for conn using the active configuration. A frame
// handler must be attached before the client is registered with the hub.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := CurrentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		conn:           conn,
		hub:            hub,
		addr:           addr,
		send:           make(chan outbound, cfg.SendBufferSize),
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    newRateLimiter(cfg.RateLimit),
		rateLimit:      cfg.RateLimit,
	}
}

// Attach sets the handler that receives this connection's frames.
func (c *Client) Attach(handler FrameHandler) {
	c.handler = handler
}

// sendQueue returns the client's outbound queue.
func (c *Client) sendQueue() <-chan outbound {
	return c.send
}

// Send queues frame for delivery as a text frame. It never blocks.
func (c *Client) Send(frame []byte) error {
	return c.sendMessage(websocket.TextMessage, frame)
}

func (c *Client) sendMessage(messageType int, frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- outbound{messageType: messageType, data: frame}:
		return nil
	default:
		log.Printf("Closing connection from %s: send buffer full", c.addr)
		c.closeSendLocked()
		return ErrSendBufferFull
	}
}

// closeSend stops accepting frames; the write pump then sends a close frame
// and tears the connection down.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeSendLocked()
}

func (c *Client) closeSendLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
}

// logReadError reports why the read loop ended.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Frame from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	case websocket.IsUnexpectedCloseError(err):
		log.Printf("Unexpected WebSocket close from %s: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		log.Printf("Rate limit exceeded for %s (%d frames per %s); discarding frame", c.addr, c.rateLimit.Burst, c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// readPump feeds inbound frames to the handler in arrival order. When the
// connection ends for any reason the handler is closed, which takes the
// client out of its room.
func (c *Client) readPump() {
	defer func() {
		c.handler.Close()
		c.hub.release(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	if err := c.handler.Join(); err != nil {
		log.Printf("Client %s could not join: %v", c.addr, err)
		return
	}

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		if !c.checkRateLimit() {
			continue
		}

		if err := c.handle(messageType, frame); errors.Is(err, session.ErrSessionClosed) {
			return
		}
	}
}

func (c *Client) handle(messageType int, frame []byte) error {
	if typed, ok := c.handler.(typedFrameHandler); ok {
		return typed.HandleTypedFrame(messageType, frame)
	}
	return c.handler.HandleFrame(frame)
}

// writePump writes queued frames, one WebSocket frame per queued message, and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.writeCloseMessage()
				return
			}
			if !c.writeFrame(msg.messageType, msg.data) {
				return
			}
		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) writeFrame(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for %s: %v", c.addr, err)
		return false
	}
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing to %s: %v", c.addr, err)
		}
		return false
	}
	return true
}

func (c *Client) writeCloseMessage() {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close message to %s: %v", c.addr, err)
		}
	}
}

func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection from %s: %v", c.addr, err)
		}
	}
}
