package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RLGADM/Kenshou-beta-3/internal/registry"
)

func SetupRoutes(reg *registry.Registry, wsHandler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/rooms/{code}", RoomExists(reg))
	r.Get("/ws", wsHandler)
	return r
}
