package handlers

import (
	"net/http"

	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
	"github.com/matteolinarello/Web-App-SIGEP/pkg/httpext"
)

type healthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Sessions int    `json:"sessions"`
}

func HandleHealth(assistantService *assistant.Service, w http.ResponseWriter, r *http.Request) {
	httpext.JsonResponse(w, healthResponse{
		Status:   "ok",
		Provider: assistantService.ProviderName(),
		Sessions: assistantService.Count(),
	}, http.StatusOK)
}
