package family

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Post("/users", CreateUserHandler)

	r.Post("/children", CreateChildHandler)
	r.Get("/children", ListChildrenHandler)
	r.Get("/children/{child_id}", GetChildHandler)
	r.Post("/children/{child_id}/device", AssignDeviceHandler)
	r.Delete("/children/{child_id}/device", UnassignDeviceHandler)
	r.Post("/children/{child_id}/parents", LinkParentHandler)
	r.Post("/children/{child_id}/teachers", LinkTeacherHandler)
	r.Patch("/children/{child_id}/deactivate", DeactivateChildHandler)

	return r
}
