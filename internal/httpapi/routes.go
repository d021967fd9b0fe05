package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vargha1/bounceroyale/internal/relay"
	"github.com/vargha1/bounceroyale/internal/ws"
)

func SetupRoutes(rl *relay.Relay, peers PeerSource, publicHost string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/discover-lan", DiscoverLAN(rl, peers, publicHost))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(rl, log))
	return r
}
