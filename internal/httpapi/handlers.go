package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jdmadden/planning-poker-backend/internal/game"
)

type createGameRequest struct {
	Name        string `json:"name"`
	HostIsVoter bool   `json:"hostIsVoter"`
}

type createGameResponse struct {
	Link        string `json:"link"`
	Name        string `json:"name"`
	HostIsVoter bool   `json:"hostIsVoter"`
}

func CreateGame(svc *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		g, err := svc.CreateGame(r.Context(), req.Name, req.HostIsVoter)
		if err != nil {
			log.Error("create game failed", zap.Error(err))
			http.Error(w, "failed to create game", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createGameResponse{
			Link:        g.Link,
			Name:        g.Name,
			HostIsVoter: g.HostIsVoter,
		})
	}
}

// GetGame serves the lobby page's bootstrap data.
func GetGame(svc *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := chi.URLParam(r, "link")

		info, err := svc.GameInfo(r.Context(), link)
		if err != nil {
			if errors.Is(err, game.ErrGameNotFound) {
				http.Error(w, "game not found", http.StatusNotFound)
				return
			}
			log.Error("get game failed", zap.String("link", link), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
