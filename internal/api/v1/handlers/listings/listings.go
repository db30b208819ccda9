package listings

import (
	"net/http"
	"strconv"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services/directory"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/httpext"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

func HandleExhibitors(directoryService *directory.Service, w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, directory.DefaultExhibitorLimit)
	if !ok {
		return
	}

	exhibitors, err := directoryService.Exhibitors(limit)
	if err != nil {
		logger.Error(logger.HANDLER, "Failed to list exhibitors: %v", err)
		httpext.JsonError(w, "Failed to list exhibitors", http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, map[string]interface{}{"exhibitors": exhibitors}, http.StatusOK)
}

func HandleEvents(directoryService *directory.Service, w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, directory.DefaultEventLimit)
	if !ok {
		return
	}

	events, err := directoryService.Events(limit)
	if err != nil {
		logger.Error(logger.HANDLER, "Failed to list events: %v", err)
		httpext.JsonError(w, "Failed to list events", http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, map[string]interface{}{"events": events}, http.StatusOK)
}

// parseLimit reads ?limit=N; 0 lists everything
func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		httpext.JsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}
