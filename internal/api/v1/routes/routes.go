package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	v1handlers "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers"
	v1mware "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/middleware"
)

// NewRouter builds the HTTP surface of the assistant
func NewRouter(deps v1handlers.Dependencies) *mux.Router {
	router := mux.NewRouter()
	router.Use(v1mware.Recover, v1mware.RequestLogger)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		v1handlers.HandleHealth(deps.Assistant, w, r)
	}).Methods("GET")

	v1handlers.RegisterV1Routes(router, deps)
	return router
}
