package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/widget"
	"github.com/portfolio/backend/pkg/logger"
)

// WebSocketHandler runs one chat widget session per connection.
type WebSocketHandler struct {
	newSession func() *widget.Session
}

func NewWebSocketHandler(newSession func() *widget.Session) *WebSocketHandler {
	return &WebSocketHandler{newSession: newSession}
}

type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// wsWriter serialises writes; replies arrive from the session's goroutines.
type wsWriter struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (w *wsWriter) send(frame map[string]interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if err := w.conn.WriteJSON(frame); err != nil {
		logger.Debug("Failed to write WebSocket frame", zap.Error(err))
	}
}

func (w *wsWriter) shut() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")
	metrics.WidgetSessions.Inc()

	session := h.newSession()
	out := &wsWriter{conn: c}
	ctx, cancel := context.WithCancel(context.Background())
	var inflight sync.WaitGroup

	defer func() {
		cancel()
		session.Close()
		inflight.Wait()
		session.Wait()
		out.shut()
		c.Close()
		metrics.WidgetSessions.Dec()
		logger.Info("WebSocket connection closed")
	}()

	session.OnState(func(s widget.State) {
		out.send(map[string]interface{}{"type": "state", "state": s})
	})
	session.OnMessage(func(m widget.Message) {
		out.send(map[string]interface{}{"type": "message", "message": m})
	})

	out.send(map[string]interface{}{
		"type":     "transcript",
		"state":    session.State(),
		"messages": session.Transcript(),
	})

	for {
		var msg clientFrame
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case "open":
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				session.Open(ctx)
			}()
		case "ask":
			text := msg.Content
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				if _, err := session.Ask(ctx, text); err != nil && !errors.Is(err, context.Canceled) {
					out.send(map[string]interface{}{"type": "error", "error": askErrorText(err)})
				}
			}()
		case "close":
			session.Close()
		case "transcript":
			out.send(map[string]interface{}{
				"type":     "transcript",
				"state":    session.State(),
				"messages": session.Transcript(),
			})
		default:
			out.send(map[string]interface{}{"type": "error", "error": "Unknown message type"})
		}
	}
}

func askErrorText(err error) string {
	switch {
	case errors.Is(err, widget.ErrEmptyMessage):
		return "Message is empty"
	case errors.Is(err, widget.ErrClosed):
		return "Chat is closed"
	case errors.Is(err, widget.ErrBusy):
		return "Please wait for the current reply"
	default:
		return "Failed to send message"
	}
}
