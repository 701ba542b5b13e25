package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/manu-sreesanth/echojournal/internal/model/persona"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// Handler serves the persona catalogue.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes mounts the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}
