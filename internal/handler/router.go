package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/manu-sreesanth/echojournal/internal/handler/chat"
	journalHandler "github.com/manu-sreesanth/echojournal/internal/handler/journal"
	mentoringHandler "github.com/manu-sreesanth/echojournal/internal/handler/mentoring"
	personaHandler "github.com/manu-sreesanth/echojournal/internal/handler/persona"
	profileHandler "github.com/manu-sreesanth/echojournal/internal/handler/profile"
	streamHandler "github.com/manu-sreesanth/echojournal/internal/handler/stream"
	middlewarePkg "github.com/manu-sreesanth/echojournal/internal/middleware"
	personaModel "github.com/manu-sreesanth/echojournal/internal/model/persona"
	chatService "github.com/manu-sreesanth/echojournal/internal/service/chat"
	journalService "github.com/manu-sreesanth/echojournal/internal/service/journal"
	mentorService "github.com/manu-sreesanth/echojournal/internal/service/mentor"
	"github.com/manu-sreesanth/echojournal/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(
	personas personaModel.Store,
	chatSvc *chatService.Service,
	journalSvc *journalService.Service,
	mentorSvc *mentorService.Service,
	profiles profileHandler.Store,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", handleHealthz)

		personaHandler.New(personas).RegisterRoutes(api)
		profileHandler.New(profiles).RegisterRoutes(api)

		if chatSvc != nil {
			chatHandler.New(chatSvc).RegisterRoutes(api)
			chatHandler.NewWebSocketHandler(chatSvc).RegisterRoutes(api)
			streamHandler.New(chatSvc).RegisterRoutes(api)
		}
		if journalSvc != nil {
			journalHandler.New(journalSvc).RegisterRoutes(api)
		}
		if mentorSvc != nil {
			mentoringHandler.New(mentorSvc).RegisterRoutes(api)
		}
	})

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
