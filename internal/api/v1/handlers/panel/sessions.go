package panel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/session"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/httpext"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

type submitRequest struct {
	Text string `json:"text"`
}

// HandleOpenSession opens a panel and binds it to the browser with a cookie
func HandleOpenSession(assistantService *assistant.Service, sessionService *session.Service, w http.ResponseWriter, r *http.Request) {
	panel := assistantService.Open()

	if err := sessionService.CreateSession(r.Context(), w, panel.ID()); err != nil {
		logger.Error(logger.HANDLER, "Failed to create panel cookie for %s: %v", panel.ID(), err)
		_ = assistantService.Close(panel.ID())
		httpext.JsonError(w, "Failed to open assistant panel", http.StatusInternalServerError)
		return
	}

	logger.Info(logger.HANDLER, "Opened assistant panel %s", panel.ID())
	httpext.JsonResponse(w, panel.Snapshot(), http.StatusCreated)
}

// HandleGetSession returns the transcript of the panel named in the path
func HandleGetSession(assistantService *assistant.Service, w http.ResponseWriter, r *http.Request) {
	panel, ok := lookup(assistantService, w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	httpext.JsonResponse(w, panel.Snapshot(), http.StatusOK)
}

// HandleCurrentSession returns the panel bound to the request's cookie
func HandleCurrentSession(assistantService *assistant.Service, sessionService *session.Service, w http.ResponseWriter, r *http.Request) {
	claims, err := sessionService.ValidateSession(r)
	if err != nil {
		logger.Warn(logger.HANDLER, "Rejected panel cookie: %v", err)
		httpext.JsonError(w, "Invalid session", http.StatusUnauthorized)
		return
	}
	if claims == nil {
		httpext.JsonError(w, "No active assistant panel", http.StatusNotFound)
		return
	}

	panel, ok := lookup(assistantService, w, claims.SessionID)
	if !ok {
		return
	}
	httpext.JsonResponse(w, panel.Snapshot(), http.StatusOK)
}

// HandleSubmitMessage runs one turn and returns the transcript after it.
// Blank input leaves the transcript untouched and still answers 200.
func HandleSubmitMessage(assistantService *assistant.Service, w http.ResponseWriter, r *http.Request) {
	panel, ok := lookup(assistantService, w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(logger.HANDLER, "Failed to decode submit request: %v", err)
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	_, err := panel.Submit(r.Context(), req.Text)
	switch {
	case err == nil, errors.Is(err, assistant.ErrBlankInput):
		httpext.JsonResponse(w, panel.Snapshot(), http.StatusOK)
	case errors.Is(err, assistant.ErrTurnInProgress):
		httpext.JsonErrorWithDetails(w, http.StatusConflict, httpext.ErrorResponse{
			Error:            "turn_in_progress",
			ErrorDescription: "Wait for the current reply before sending another message",
		})
	case errors.Is(err, assistant.ErrSessionClosed):
		httpext.JsonError(w, "Assistant panel not found", http.StatusNotFound)
	default:
		logger.Error(logger.HANDLER, "Unexpected submit failure on %s: %v", panel.ID(), err)
		httpext.JsonError(w, "Failed to submit message", http.StatusInternalServerError)
	}
}

// HandleCloseSession discards the panel. The cookie is expired only when it
// is bound to that same panel.
func HandleCloseSession(assistantService *assistant.Service, sessionService *session.Service, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := assistantService.Close(id); err != nil {
		httpext.JsonError(w, "Assistant panel not found", http.StatusNotFound)
		return
	}

	if sessionService.BoundTo(r, id) {
		sessionService.ClearSession(w, r)
	}
	logger.Info(logger.HANDLER, "Closed assistant panel %s", id)
	w.WriteHeader(http.StatusNoContent)
}

func lookup(assistantService *assistant.Service, w http.ResponseWriter, id string) (*assistant.Session, bool) {
	panel, err := assistantService.Get(id)
	if err != nil {
		httpext.JsonError(w, "Assistant panel not found", http.StatusNotFound)
		return nil, false
	}
	panel.Touch()
	return panel, true
}
