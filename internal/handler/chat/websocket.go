package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/manu-sreesanth/echojournal/internal/service/chat"
)

// WebSocketHandler runs live conversations over a websocket: one inbound
// user message per frame, streamed reply chunks back when streaming is
// enabled.
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the websocket chat handler.
func NewWebSocketHandler(chatSvc *chatService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat/{personaID}", h.handleWebSocket)
}

type inboundMessage struct {
	Message string `json:"message"`
}

type outboundMessage struct {
	Event   string `json:"event"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	personaID := chi.URLParam(r, "personaID")
	userID := r.URL.Query().Get("userId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		if strings.TrimSpace(inbound.Message) == "" {
			conn.WriteJSON(outboundMessage{Event: "error", Error: "message is required"})
			continue
		}

		h.respond(r.Context(), conn, userID, personaID, inbound.Message)
	}
}

func (h *WebSocketHandler) respond(ctx context.Context, conn *websocket.Conn, userID, personaID, message string) {
	if !h.chatSvc.StreamingEnabled() {
		turn, err := h.chatSvc.Respond(ctx, userID, personaID, message)
		if err != nil {
			conn.WriteJSON(outboundMessage{Event: "error", Error: err.Error()})
			return
		}
		conn.WriteJSON(outboundMessage{Event: "message", Content: turn.Content})
		conn.WriteJSON(outboundMessage{Event: "done"})
		return
	}

	result, err := h.chatSvc.PrepareStream(ctx, userID, personaID, message)
	if err != nil {
		conn.WriteJSON(outboundMessage{Event: "error", Error: err.Error()})
		return
	}

	// Crisis short-circuit and stream-failure degradation both arrive as a
	// complete reply.
	if result.Stream == nil {
		conn.WriteJSON(outboundMessage{Event: "message", Content: result.Reply})
		conn.WriteJSON(outboundMessage{Event: "done"})
		return
	}

	defer result.Stream.Close()

	var full strings.Builder
	for {
		chunk, err := result.Stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("[ws] stream recv error: %v", err)
			}
			break
		}
		if chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		conn.WriteJSON(outboundMessage{Event: "chunk", Content: chunk.Content})
	}

	turn, err := h.chatSvc.FinishStream(ctx, userID, personaID, full.String())
	if err != nil {
		conn.WriteJSON(outboundMessage{Event: "error", Error: err.Error()})
		return
	}
	conn.WriteJSON(outboundMessage{Event: "done", Content: turn.Content})
}
