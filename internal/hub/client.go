package hub

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds each send so a half-closed socket cannot hold the
	// write pump indefinitely.
	writeWait = 10 * time.Second

	// sendBuffer is the per-client queue depth before the client is
	// considered too slow and dropped.
	sendBuffer = 32
)

// Conn is the subset of *websocket.Conn the hub needs. Tests substitute a
// fake; production code always passes a gorilla connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one live subscriber connection.
type Client struct {
	hub  *Hub
	conn Conn
	send chan []byte
}

// Serve registers a new subscriber connection and starts its pumps. It
// returns immediately; the connection lives until the peer closes it, the
// socket errors, or the hub drops it.
func (h *Hub) Serve(conn Conn) *Client {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.Register(c)
	go c.writePump()
	go c.readPump()
	return c
}

// writePump drains the send queue onto the socket. A send failure on this
// connection only affects this connection: the client unregisters itself and
// the broadcast that triggered the write carries on elsewhere.
func (c *Client) writePump() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.hub.logger.Warn("subscriber send failed", "error", err)
			break
		}
	}
	c.hub.Unregister(c)
	c.conn.Close()
}

// readPump discards inbound frames; the channel is push-only from the
// server's side. Its real job is detecting the close/error of the peer and
// removing the connection from the registry.
func (c *Client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	c.hub.Unregister(c)
	c.conn.Close()
}
