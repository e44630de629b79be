package routes

import (
	"net/http"

	"github.com/medisight/clinicpricewatch/internal/api/handlers"
	"github.com/medisight/clinicpricewatch/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	priceHandler     *handlers.PriceHandler
	candidateHandler *handlers.CandidateHandler
	alertHandler     *handlers.AlertHandler
}

// NewRouter creates a new router
func NewRouter(
	priceHandler *handlers.PriceHandler,
	candidateHandler *handlers.CandidateHandler,
	alertHandler *handlers.AlertHandler,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		priceHandler:     priceHandler,
		candidateHandler: candidateHandler,
		alertHandler:     alertHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Price endpoints
	r.mux.HandleFunc("POST /api/prices/register", r.priceHandler.RegisterPrice)
	r.mux.HandleFunc("GET /api/prices/history", r.priceHandler.GetPriceHistory)

	// Candidate review endpoints
	r.mux.HandleFunc("GET /api/candidates", r.candidateHandler.ListCandidates)
	r.mux.HandleFunc("GET /api/candidates/{id}", r.candidateHandler.GetCandidate)
	r.mux.HandleFunc("POST /api/candidates/{id}/approve", r.candidateHandler.ApproveCandidate)
	r.mux.HandleFunc("POST /api/candidates/{id}/reject", r.candidateHandler.RejectCandidate)

	// Alert endpoints
	r.mux.HandleFunc("GET /api/hospitals/{id}/alerts", r.alertHandler.ListAlerts)
	r.mux.HandleFunc("POST /api/alerts/{id}/read", r.alertHandler.MarkAlertRead)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
