package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"anoa.com/feedsync/internal/auth"
	session "anoa.com/feedsync/internal/modules/session/service"
	"anoa.com/feedsync/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 10
)

type SessionHandler struct {
	registry *session.Registry
	upgrader websocket.Upgrader
}

// NewSessionHandler accepts sockets from the given origins; an empty list
// accepts any origin.
func NewSessionHandler(registry *session.Registry, allowedOrigins []string) *SessionHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &SessionHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket streams snapshots, toasts and intent errors to the client
// and feeds the intents it sends into the viewer's session.
func (h *SessionHandler) HandleWebSocket(c *gin.Context) {
	viewer := auth.GetViewer(c)

	sessConn, err := h.registry.Attach(viewer)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	defer sessConn.Close()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		readIntents(ctx, ws, sessConn)
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var msg session.Message
		select {
		case snap := <-sessConn.Snapshots():
			msg = session.Message{Type: session.MessageSnapshot, Snapshot: &snap}
		case msg = <-sessConn.Messages():
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		case <-sessConn.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"),
				time.Now().Add(writeWait))
			return
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}

		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(msg); err != nil {
			log.Printf("Failed to write message to websocket: %v", err)
			return
		}
	}
}

func readIntents(ctx context.Context, ws *websocket.Conn, sessConn *session.Conn) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var intent session.Intent
		if err := json.Unmarshal(payload, &intent); err != nil {
			log.Printf("skipping malformed intent: %v", err)
			continue
		}
		if err := sessConn.Send(ctx, intent); err != nil {
			return
		}
	}
}
