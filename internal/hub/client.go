package hub

import (
	"context"

	"nhooyr.io/websocket"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

func (c *client) writePump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")
	for data := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}

// readPump drains the connection so pings and close frames are handled.
// Clients only listen; inbound payloads are ignored.
func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(4096)
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}
