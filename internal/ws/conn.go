package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"go_crm/internal/event"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The handshake is already gated by JWT auth.
		return true
	},
}

// client is one websocket connection with its joined rooms.
// rooms is only touched by the read pump and the hub under hub.mu.
type client struct {
	id       string
	uid      int
	username string
	hub      *Hub
	db       *gorm.DB
	conn     *websocket.Conn
	send     chan []byte
	rooms    map[string]struct{}
}

// Handler returns a gin handler that authenticates the handshake, upgrades
// the connection and runs the client's read/write pumps.
func Handler(hub *Hub, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticateHandshake(c.Request)
		if err != nil {
			c.String(http.StatusUnauthorized, "unauthorized")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.WithError(err).Warn("websocket upgrade failed")
			return
		}

		cl := &client{
			id:       uuid.NewString(),
			uid:      claims.UID,
			username: claims.Username,
			hub:      hub,
			db:       db,
			conn:     conn,
			send:     make(chan []byte, hub.sendBuffer),
			rooms:    make(map[string]struct{}),
		}
		hub.register(cl)

		// Confirmation frame, mirrors the HTTP envelope's "success" habit.
		if data, err := event.Marshal(event.KindConnected, gin.H{"ok": true, "clientId": cl.id}); err == nil {
			cl.send <- data
		}

		go cl.writePump()
		go cl.readPump()
	}
}

// readPump consumes client frames until the connection drops. Join and leave
// are the only client-initiated actions.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.WithError(err).WithField("client", c.id).Warn("read error")
			}
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.log.WithField("client", c.id).Warn("malformed frame, ignoring")
			continue
		}

		switch env.Kind {
		case event.KindJoin:
			var req event.RoomRequest
			if err := json.Unmarshal(env.Data, &req); err != nil || req.ProjectID == "" {
				continue
			}
			c.hub.joinRoom(req.ProjectID, c)
			if req.LastEventID > 0 {
				c.replay(req.ProjectID, req.LastEventID)
			}
		case event.KindLeave:
			var req event.RoomRequest
			if err := json.Unmarshal(env.Data, &req); err != nil || req.ProjectID == "" {
				continue
			}
			c.hub.leaveRoom(req.ProjectID, c)
		}
	}
}

// replay sends persisted events the client missed while disconnected.
// On overflow or query failure the client simply gets nothing extra and is
// expected to refetch in full.
func (c *client) replay(projectID string, lastEventID int64) {
	events, err := GetIncrementalEvents(c.db, projectID, lastEventID, replayLimit)
	if err != nil {
		c.hub.log.WithError(err).Warn("replay query failed")
		return
	}
	if len(events) >= replayLimit {
		c.hub.log.WithField("client", c.id).Warn("too many missed events, skipping replay")
		return
	}
	for _, ev := range events {
		data, err := event.Marshal(event.KindDBChange, event.DatabaseEvent{
			EventID:   ev.ID,
			ProjectID: ev.ProjectID,
			TableName: ev.TableName,
			Type:      ev.EventType,
			Payload:   json.RawMessage(ev.Payload),
		})
		if err != nil {
			continue
		}
		select {
		case c.send <- data:
		default:
			return
		}
	}
}

// writePump moves queued frames onto the wire and keeps the connection alive
// with pings. Closing c.send terminates it.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
