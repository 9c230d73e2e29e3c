package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBufferSize = 256
)

// client is one live websocket connection with the identity claims bound at
// handshake time. The claims are a snapshot: profile edits made during the
// session are not reflected until reconnect.
type client struct {
	conn     *websocket.Conn
	identity UserRef
	send     chan Event
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

func newClient(conn *websocket.Conn, identity UserRef, logger *zap.Logger) *client {
	return &client{
		conn:     conn,
		identity: identity,
		send:     make(chan Event, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Push queues an event for the write pump. A full buffer drops the event:
// delivery is best-effort and must not block the sender's flow.
func (c *client) Push(ev Event) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		c.logger.Warn("dropping event for slow connection",
			zap.String("userId", c.identity.ID),
			zap.String("event", ev.Event))
	}
}

// close stops the write pump. Safe to call more than once.
func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// writePump serializes all writes to the underlying connection and keeps the
// transport alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
