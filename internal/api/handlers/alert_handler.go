package handlers

import (
	"net/http"

	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
)

// AlertHandler exposes alert listing and read-marking for the dashboard.
type AlertHandler struct {
	alertRepo repositories.PriceChangeAlertRepository
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertRepo repositories.PriceChangeAlertRepository) *AlertHandler {
	return &AlertHandler{
		alertRepo: alertRepo,
	}
}

// ListAlerts handles GET /api/hospitals/{id}/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.PathValue("id")
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	alerts, err := h.alertRepo.ListBySubscriber(r.Context(), hospitalID, unreadOnly, limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// MarkAlertRead handles POST /api/alerts/{id}/read
func (h *AlertHandler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.alertRepo.MarkRead(r.Context(), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "read"})
}
