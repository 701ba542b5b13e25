package profile

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	profileModel "github.com/manu-sreesanth/echojournal/internal/model/profile"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// Store is the slice of persistence the profile handler needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (profileModel.Memory, error)
	UpsertProfile(ctx context.Context, m profileModel.Memory) error
}

// Handler serves the memory-profile endpoints used by onboarding.
type Handler struct {
	store Store
}

// New creates the profile handler.
func New(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile/{userID}", h.handleGet)
	r.Put("/profile/{userID}", h.handlePut)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	mem, err := h.store.GetProfile(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to read profile")
		return
	}
	mem.UserID = userID

	utils.RespondJSON(w, http.StatusOK, mem)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var payload profileModel.Memory
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.UserID = userID
	payload.ClampGoals()

	if err := h.store.UpsertProfile(r.Context(), payload); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	mem, err := h.store.GetProfile(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to read profile")
		return
	}

	utils.RespondJSON(w, http.StatusOK, mem)
}
