package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/game"
	"github.com/jdmadden/planning-poker-backend/internal/hub"
	"github.com/jdmadden/planning-poker-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, svc *game.Service, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/games", CreateGame(svc, log))
	r.Get("/games/{link}", GetGame(svc, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, svc, log))
	return r
}
