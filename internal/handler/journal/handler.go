package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	journalModel "github.com/manu-sreesanth/echojournal/internal/model/journal"
	journalService "github.com/manu-sreesanth/echojournal/internal/service/journal"
	"github.com/manu-sreesanth/echojournal/internal/store"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// Handler serves journal entry CRUD and the insights fan-out.
type Handler struct {
	journalSvc *journalService.Service
}

// New creates the journal handler.
func New(journalSvc *journalService.Service) *Handler {
	return &Handler{journalSvc: journalSvc}
}

// RegisterRoutes mounts the journal routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/journal", h.handleCreate)
	r.Get("/journal", h.handleList)
	r.Get("/journal/{id}", h.handleGet)
	r.Put("/journal/{id}", h.handleUpdate)
	r.Delete("/journal/{id}", h.handleDelete)
	r.Post("/journal/{id}/favorite", h.handleFavorite)
	r.Get("/journal/{id}/insights", h.handleInsights)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID  string   `json:"userId"`
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Mood    string   `json:"mood"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.journalSvc.Create(r.Context(), journalModel.Entry{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Content: payload.Content,
		Mood:    payload.Mood,
		Tags:    payload.Tags,
	})
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.journalSvc.List(r.Context(), userID, limit)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	if entries == nil {
		entries = []journalModel.Entry{}
	}

	utils.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Mood    string   `json:"mood"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.journalSvc.Update(r.Context(), journalModel.Entry{
		ID:      chi.URLParam(r, "id"),
		Title:   payload.Title,
		Content: payload.Content,
		Mood:    payload.Mood,
		Tags:    payload.Tags,
	})
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.journalSvc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleFavorite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.journalSvc.SetFavorite(r.Context(), id, payload.Favorite); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	entry, err := h.journalSvc.Get(r.Context(), id)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.journalSvc.Insights(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, insights)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, journalService.ErrUserRequired), errors.Is(err, journalService.ErrContentRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
