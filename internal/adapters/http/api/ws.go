package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/crease/internal/domain/model"
	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

var errClientSlow = errors.New("websocket client buffer full")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsHandler struct {
	ctx  context.Context
	deps Dependencies
	log  logger.Logger
}

func newWSHandler(ctx context.Context, deps Dependencies, log logger.Logger) *wsHandler {
	return &wsHandler{ctx: ctx, deps: deps, log: log.Named("ws")}
}

// wsClient streams one user's notifications to one connection.
type wsClient struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan model.Notification
	closed chan struct{}
}

// serve upgrades GET /ws?userId= and registers the connection with the hub.
func (h *wsHandler) serve(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeFailure(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	c := &wsClient{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan model.Notification, sendBufferSize),
		closed: make(chan struct{}),
	}
	sub := h.deps.SubscribeNotifications(c.offer)
	metrics.UpdateWebSocketClients(1)
	h.log.Info(r.Context(), "websocket connected",
		logger.String("client_id", c.id),
		logger.String("user_id", userID))

	go c.writePump(h.ctx)
	go func() {
		c.readPump()
		h.deps.UnsubscribeNotifications(sub)
		close(c.closed)
		metrics.UpdateWebSocketClients(-1)
		h.log.Info(h.ctx, "websocket disconnected", logger.String("client_id", c.id))
	}()
}

// offer is the hub subscriber; it never blocks the notify path.
func (c *wsClient) offer(_ context.Context, n model.Notification) error {
	if n.UserID != c.userID {
		return nil
	}
	select {
	case <-c.closed:
		return nil
	default:
	}
	select {
	case c.send <- n:
		return nil
	default:
		return errClientSlow
	}
}

// readPump drains client frames so pongs and close frames are processed.
func (c *wsClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-c.closed:
			return
		case n := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
