package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	v1listings "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers/listings"
	v1panel "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers/panel"
	v1websocket "github.com/matteolinarello/Web-App-SIGEP/internal/api/v1/handlers/websocket"
	"github.com/matteolinarello/Web-App-SIGEP/internal/connections"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/directory"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/session"
)

// Dependencies are the services the v1 handlers run against
type Dependencies struct {
	Assistant   *assistant.Service
	Directory   *directory.Service
	Session     *session.Service
	Connections *connections.Manager
}

func RegisterV1Routes(router *mux.Router, deps Dependencies) {
	v1 := router.PathPrefix("/v1").Subrouter()

	// Assistant panel routes
	v1assistantRouter := v1.PathPrefix("/assistant").Subrouter()
	v1assistantRouter.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		v1panel.HandleOpenSession(deps.Assistant, deps.Session, w, r)
	}).Methods("POST")
	v1assistantRouter.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		v1panel.HandleCurrentSession(deps.Assistant, deps.Session, w, r)
	}).Methods("GET")
	v1assistantRouter.HandleFunc("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1panel.HandleGetSession(deps.Assistant, w, r)
	}).Methods("GET")
	v1assistantRouter.HandleFunc("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		v1panel.HandleCloseSession(deps.Assistant, deps.Session, w, r)
	}).Methods("DELETE")
	v1assistantRouter.HandleFunc("/sessions/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		v1panel.HandleSubmitMessage(deps.Assistant, w, r)
	}).Methods("POST")
	v1assistantRouter.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		v1websocket.HandlePanelWebSocket(deps.Assistant, deps.Connections, w, r)
	})

	// Directory listing routes
	v1.HandleFunc("/exhibitors", func(w http.ResponseWriter, r *http.Request) {
		v1listings.HandleExhibitors(deps.Directory, w, r)
	}).Methods("GET")
	v1.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		v1listings.HandleEvents(deps.Directory, w, r)
	}).Methods("GET")
}
