package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	chatService "github.com/manu-sreesanth/echojournal/internal/service/chat"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// Handler serves the persona conversation endpoints.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/{personaID}", h.handleMessage)
	r.Get("/chat/{personaID}/history", h.handleHistory)
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	personaID := chi.URLParam(r, "personaID")

	var payload struct {
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.chatSvc.Respond(r.Context(), payload.UserID, personaID, payload.Message)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	personaID := chi.URLParam(r, "personaID")
	userID := r.URL.Query().Get("userId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	turns, err := h.chatSvc.History(r.Context(), userID, personaID, limit)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, turns)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrPersonaNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrUserRequired), errors.Is(err, chatService.ErrMessageRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
