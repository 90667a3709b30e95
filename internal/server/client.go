package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/CardDAO/truco-sub000/custody"
	"github.com/CardDAO/truco-sub000/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Peers connect from anywhere; there is no cookie auth to protect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one WebSocket peer. Identity is set on the first join or
// create command and pins the connection to a seat.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	Identity  custody.Identity
	lastNonce uint64
}

// ServeWs upgrades an HTTP request into a registered client.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 32)}
	hub.register <- client
	go client.WritePump()
	go client.ReadPump()
}

// ReadPump decodes envelopes and feeds them to the hub. Envelope
// nonces must strictly increase per connection; replays are dropped.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("unexpected websocket close")
			}
			break
		}

		var msg protocol.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logrus.WithError(err).Warn("malformed envelope")
			continue
		}
		if msg.Topic != "ping" {
			if msg.Nonce <= c.lastNonce {
				logrus.WithFields(logrus.Fields{
					"topic": msg.Topic,
					"nonce": msg.Nonce,
				}).Warn("stale envelope nonce dropped")
				continue
			}
			c.lastNonce = msg.Nonce
		}
		c.hub.processMessage <- clientMessage{client: c, message: msg}
	}
}

// WritePump flushes the outbound queue until it closes.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logrus.WithError(err).Warn("websocket write failed")
			break
		}
	}
}
