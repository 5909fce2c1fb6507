package cases

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/", ReportCaseHandler)
	r.Get("/", ListCasesHandler)
	r.Get("/{case_id}", GetCaseHandler)
	r.Patch("/{case_id}/close", CloseCaseHandler)

	return r
}
