package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
)

// approvedAliasConfidence is assigned to aliases created from candidate
// approval when the reviewer does not specify one.
const approvedAliasConfidence = 90

// CandidateHandler exposes mapping candidates for review. Approval is where
// the alias gets created and the candidate status flips; the ingestion core
// only ever marks candidates as ready.
type CandidateHandler struct {
	candidateRepo repositories.MappingCandidateRepository
	aliasRepo     repositories.ProcedureAliasRepository
}

// NewCandidateHandler creates a new candidate handler
func NewCandidateHandler(
	candidateRepo repositories.MappingCandidateRepository,
	aliasRepo repositories.ProcedureAliasRepository,
) *CandidateHandler {
	return &CandidateHandler{
		candidateRepo: candidateRepo,
		aliasRepo:     aliasRepo,
	}
}

// ListCandidates handles GET /api/candidates
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	status := entities.CandidateStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = entities.CandidateStatusPendingReview
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	candidates, err := h.candidateRepo.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
		"count":      len(candidates),
	})
}

// GetCandidate handles GET /api/candidates/{id}
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	candidate, err := h.candidateRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	samples, err := h.candidateRepo.ListSamples(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"candidate": candidate,
		"samples":   samples,
	})
}

type approveCandidateRequest struct {
	ProcedureID string `json:"procedure_id"`
	Confidence  int    `json:"confidence"`
}

// ApproveCandidate handles POST /api/candidates/{id}/approve
func (h *CandidateHandler) ApproveCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var payload approveCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.ProcedureID == "" {
		respondWithError(w, http.StatusBadRequest, "procedure_id is required")
		return
	}

	candidate, err := h.candidateRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if candidate.Status.IsTerminal() {
		respondWithError(w, http.StatusConflict, "candidate already resolved")
		return
	}

	confidence := payload.Confidence
	if confidence <= 0 || confidence > 100 {
		confidence = approvedAliasConfidence
	}

	alias := &entities.ProcedureAlias{
		ID:             uuid.New().String(),
		ProcedureID:    payload.ProcedureID,
		AliasName:      candidate.RawName,
		NormalizedName: candidate.NormalizedName,
		Confidence:     confidence,
		Source:         "candidate_approval",
		CreatedAt:      time.Now(),
	}
	if err := h.aliasRepo.Create(r.Context(), alias); err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := h.candidateRepo.LinkProcedure(r.Context(), id, payload.ProcedureID); err != nil {
		respondWithAppError(w, err)
		return
	}
	if err := h.candidateRepo.UpdateStatus(r.Context(), id, entities.CandidateStatusApproved); err != nil {
		respondWithAppError(w, err)
		return
	}

	observability.LoggerFromContext(r.Context()).Info().
		Str("candidate_id", id).
		Str("procedure_id", payload.ProcedureID).
		Str("alias_id", alias.ID).
		Msg("Mapping candidate approved")

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":   "approved",
		"alias_id": alias.ID,
	})
}

// RejectCandidate handles POST /api/candidates/{id}/reject
func (h *CandidateHandler) RejectCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	candidate, err := h.candidateRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if candidate.Status.IsTerminal() {
		respondWithError(w, http.StatusConflict, "candidate already resolved")
		return
	}

	if err := h.candidateRepo.UpdateStatus(r.Context(), id, entities.CandidateStatusRejected); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
