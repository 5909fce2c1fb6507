package tracking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(MethodNotAllowedHandler)

	r.Post("/location", UpdateLocationHandler)
	r.Get("/children/{child_id}/history", HistoryHandler)
	r.Get("/children/{child_id}/latest", LatestLocationHandler)
	r.Get("/children/{child_id}/alerts", AlertsHandler)

	return r
}
