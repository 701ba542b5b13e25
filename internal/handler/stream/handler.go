package stream

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/manu-sreesanth/echojournal/internal/service/chat"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// Handler streams persona replies over Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the SSE stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the streaming route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{personaID}", h.handleStream)
}

// StreamResponse is one SSE frame.
type StreamResponse struct {
	Event    string `json:"event"`
	Content  string `json:"content,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	personaID := chi.URLParam(r, "personaID")
	userID := r.URL.Query().Get("userId")
	message := r.URL.Query().Get("message")

	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	result, err := h.chatSvc.PrepareStream(r.Context(), userID, personaID, message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrPersonaNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, chatService.ErrUserRequired) || errors.Is(err, chatService.ErrMessageRequired) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "start"})

	// Crisis replies and stream-failure fallbacks arrive whole.
	if result.Stream == nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "message", Content: result.Reply})
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "done", Finished: true})
		return
	}

	defer result.Stream.Close()

	var full string
	for {
		chunk, err := result.Stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("[stream] recv error: %v", err)
				utils.SendSSEChunk(w, flusher, StreamResponse{Event: "error", Error: fmt.Sprintf("stream interrupted: %v", err)})
			}
			break
		}
		if chunk.Content == "" {
			continue
		}
		full += chunk.Content
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "chunk", Content: chunk.Content})
	}

	turn, err := h.chatSvc.FinishStream(r.Context(), userID, personaID, full)
	if err != nil {
		log.Printf("[stream] failed to persist reply: %v", err)
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "error", Error: "failed to persist reply"})
		return
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "done", Content: turn.Content, Finished: true})
}
