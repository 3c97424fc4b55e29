package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mahjong-service/internal/game"
	"mahjong-service/internal/service/session"
	"mahjong-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	sessionSvc *session.Service
}

func NewHandler(sessionSvc *session.Service) *Handler {
	return &Handler{sessionSvc: sessionSvc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// HandleGameWS attaches a frontend to the live session. Every mutation is
// pushed to the socket as a full state snapshot; the client may also submit
// operations and bulk syncs over the same connection.
func (h *Handler) HandleGameWS(c *gin.Context) {
	clientID := strings.TrimSpace(c.Param("clientId"))
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection", zap.String("clientID", clientID))

	client := newClient(conn, clientID, h.sessionSvc)
	client.run()
}

type client struct {
	conn      *websocket.Conn
	clientID  string
	svc       *session.Service
	outbound  <-chan session.StateMessage
	done      chan struct{}
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, clientID string, svc *session.Service) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:      conn,
		clientID:  clientID,
		svc:       svc,
		outbound:  svc.Subscribe(clientID),
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.svc.Unsubscribe(c.clientID)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.String("clientID", c.clientID))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.safeWriteError("invalid payload")
			continue
		}

		switch incoming.Type {
		case "":
			continue
		case "ping":
			c.safeWrite(gin.H{"type": "pong"})
		case "operation":
			var op game.OperationRequest
			if err := json.Unmarshal(incoming.Data, &op); err != nil {
				c.safeWriteError("invalid operation payload")
				continue
			}
			// The socket outlives any single request; mutations carry their
			// own context.
			if res := c.svc.Apply(context.Background(), op); !res.Success {
				c.safeWriteError(res.Message)
			}
		case "sync":
			var state game.GameState
			if err := json.Unmarshal(incoming.Data, &state); err != nil {
				c.safeWriteError("invalid state payload")
				continue
			}
			if err := c.svc.SetState(context.Background(), &state); err != nil {
				c.safeWriteError(fmt.Sprintf("sync failed: %v", err))
			}
		default:
			c.safeWriteError(fmt.Sprintf("unknown message type: %s", incoming.Type))
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.String("clientID", c.clientID))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) safeWrite(v interface{}) {
	if err := c.conn.WriteJSON(v); err != nil {
		logger.Log.Info("WS write error", zap.Error(err), zap.String("clientID", c.clientID))
	}
}

func (c *client) safeWriteError(msg string) {
	c.safeWrite(gin.H{"type": "error", "message": msg})
}
