package mentoring

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	mentorService "github.com/manu-sreesanth/echojournal/internal/service/mentor"
	"github.com/manu-sreesanth/echojournal/internal/store"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// Handler serves mentoring session endpoints.
type Handler struct {
	mentorSvc *mentorService.Service
}

// New creates the mentoring handler.
func New(mentorSvc *mentorService.Service) *Handler {
	return &Handler{mentorSvc: mentorSvc}
}

// RegisterRoutes mounts the mentoring routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mentoring/start", h.handleStart)
	r.Get("/mentoring/{id}", h.handleGet)
	r.Post("/mentoring/{id}/reflect", h.handleReflect)
	r.Post("/mentoring/{id}/end", h.handleEnd)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID    string `json:"userId"`
		PersonaID string `json:"personaId"`
		PreMood   string `json:"preMood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.mentorSvc.Start(r.Context(), payload.UserID, payload.PersonaID, payload.PreMood)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.mentorSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleReflect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.mentorSvc.Reflect(r.Context(), chi.URLParam(r, "id"), payload.Message)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PostMood string `json:"postMood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.mentorSvc.End(r.Context(), chi.URLParam(r, "id"), payload.PostMood)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, mentorService.ErrSessionEnded), errors.Is(err, mentorService.ErrReflectLimit):
		return http.StatusConflict
	case errors.Is(err, mentorService.ErrUserRequired):
		return http.StatusBadRequest
	case errors.Is(err, mentorService.ErrPersonaNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
