package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/medisight/clinicpricewatch/internal/application/services"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// PriceHandler exposes the ingestion pipeline and the price ledger.
type PriceHandler struct {
	ingestion *services.PriceIngestionService
	history   *services.PriceHistoryService
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(ingestion *services.PriceIngestionService, history *services.PriceHistoryService) *PriceHandler {
	return &PriceHandler{
		ingestion: ingestion,
		history:   history,
	}
}

type registerPriceRequest struct {
	HospitalID     string  `json:"hospital_id"`
	HospitalName   string  `json:"hospital_name"`
	HospitalDomain string  `json:"hospital_domain"`
	HospitalRegion string  `json:"hospital_region"`
	SourceURL      string  `json:"source_url"`
	ProcedureID    string  `json:"procedure_id"`
	ProcedureName  string  `json:"procedure_name"`
	Category       string  `json:"category"`
	Subcategory    string  `json:"subcategory"`
	Price          float64 `json:"price"`
	TargetAreaCode string  `json:"target_area_code"`
	ShotCount      int     `json:"shot_count"`
	PricePerShot   float64 `json:"price_per_shot"`
	ScreenshotID   string  `json:"screenshot_id"`
}

// RegisterPrice handles POST /api/prices/register
func (h *PriceHandler) RegisterPrice(w http.ResponseWriter, r *http.Request) {
	var payload registerPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.ingestion.RegisterPrice(r.Context(), services.RegisterPriceInput{
		Hospital: services.ResolveHospitalInput{
			HospitalID:     payload.HospitalID,
			HospitalName:   payload.HospitalName,
			HospitalDomain: payload.HospitalDomain,
			HospitalRegion: payload.HospitalRegion,
			SourceURL:      payload.SourceURL,
		},
		Procedure: services.ResolveProcedureInput{
			ProcedureID:   payload.ProcedureID,
			ProcedureName: payload.ProcedureName,
			Category:      payload.Category,
			Subcategory:   payload.Subcategory,
		},
		Price: services.PriceInput{
			Price:          payload.Price,
			TargetAreaCode: payload.TargetAreaCode,
			ShotCount:      payload.ShotCount,
			PricePerShot:   payload.PricePerShot,
			ScreenshotID:   payload.ScreenshotID,
		},
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

// GetPriceHistory handles GET /api/prices/history
func (h *PriceHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	hospitalID := r.URL.Query().Get("hospital_id")
	procedureID := r.URL.Query().Get("procedure_id")
	targetAreaCode := r.URL.Query().Get("target_area_code")
	if hospitalID == "" || procedureID == "" || targetAreaCode == "" {
		respondWithError(w, http.StatusBadRequest, "hospital_id, procedure_id and target_area_code are required")
		return
	}

	limit := queryInt(r, "limit", 50)

	history, err := h.history.History(r.Context(), hospitalID, procedureID, targetAreaCode, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"history": history,
		"count":   len(history),
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func respondWithAppError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
