package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oggyb/elite-matchmaking/internal/logger"
	"github.com/oggyb/elite-matchmaking/internal/middleware"
	"github.com/oggyb/elite-matchmaking/internal/realtime"
	"github.com/oggyb/elite-matchmaking/internal/viewer"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketHandler streams the caller's realtime events.
type WebSocketHandler struct {
	auth     middleware.Authenticator
	notifier *realtime.Notifier
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts browser connections from allowedOrigins only.
// Requests without an Origin header (native clients) are accepted.
func NewWebSocketHandler(auth middleware.Authenticator, notifier *realtime.Notifier, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		auth:     auth,
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleWebSocket serves /ws?token=<session>&with=<counterpart>.
//
// Delivered events:
//   - message: only those sent by the counterpart named in "with"; every
//     incoming message when "with" is empty.
//   - match and session_ended: always.
//
// The stream closes after the connection's own session ends.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	v, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		respondError(w, r, err)
		return
	}
	log := logger.FromContext(r.Context(), nil).With("account", v.ID())

	// the request context ends with the handler; the stream lives as long as the socket
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	sub, err := h.notifier.Subscribe(ctx, v.ID())
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	c := &streamClient{conn: conn, viewer: v, with: r.URL.Query().Get("with")}
	log.Debug("websocket connected", "with", c.with)

	go c.readPump(cancel)
	c.writePump(ctx, sub.Events())
	log.Debug("websocket closed")
}

type streamClient struct {
	conn   *websocket.Conn
	viewer *viewer.Viewer
	with   string
}

// readPump discards client frames and cancels the stream once the peer goes away.
func (c *streamClient) readPump(cancel context.CancelFunc) {
	defer cancel()
	c.conn.SetReadLimit(4 * 1024)
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

func (c *streamClient) writePump(ctx context.Context, events <-chan realtime.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.close(websocket.CloseGoingAway, "")
			return
		case ev, ok := <-events:
			if !ok {
				c.close(websocket.CloseGoingAway, "")
				return
			}
			if !c.wants(ev) {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
			if c.ownSessionEnded(ev) {
				c.close(websocket.CloseNormalClosure, realtime.TypeSessionEnded)
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

func (c *streamClient) wants(ev realtime.Event) bool {
	if ev.Type != realtime.TypeMessage {
		return true
	}
	return ev.Message != nil && (c.with == "" || ev.Message.SenderID == c.with)
}

func (c *streamClient) ownSessionEnded(ev realtime.Event) bool {
	return ev.Type == realtime.TypeSessionEnded &&
		c.viewer.Claims != nil && ev.SessionID == c.viewer.Claims.SessionID()
}

func (c *streamClient) close(code int, reason string) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}
