package services

import (
	"context"
	"time"

	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// RegisterPriceInput is the full payload for one scraped price observation.
type RegisterPriceInput struct {
	Hospital  ResolveHospitalInput
	Procedure ResolveProcedureInput
	Price     PriceInput
}

// PriceInput carries the price portion of a registration.
type PriceInput struct {
	Price          float64
	TargetAreaCode string
	ShotCount      int
	PricePerShot   float64
	ScreenshotID   string
}

// RegisterPriceResult reports what one registration produced. ProcedureID is
// in wire format; for unresolved names it is the unmapped sentinel.
type RegisterPriceResult struct {
	ProcedureID   string `json:"procedure_id"`
	HospitalID    string `json:"hospital_id"`
	IsCandidate   bool   `json:"is_candidate"`
	AlertsEmitted int    `json:"alerts_emitted"`
}

// PriceIngestionService composes the full registration pipeline: resolve the
// hospital, resolve the procedure name, record price history, fan out alerts.
// The stages run in that fixed order; each is independently idempotent at the
// storage layer.
type PriceIngestionService struct {
	hospitals  *HospitalResolutionService
	procedures *NameResolutionService
	prices     *PriceHistoryService
	metrics    *observability.Metrics
}

// NewPriceIngestionService creates a new price ingestion service
func NewPriceIngestionService(
	hospitals *HospitalResolutionService,
	procedures *NameResolutionService,
	prices *PriceHistoryService,
	metrics *observability.Metrics,
) *PriceIngestionService {
	return &PriceIngestionService{
		hospitals:  hospitals,
		procedures: procedures,
		prices:     prices,
		metrics:    metrics,
	}
}

// RegisterPrice runs one observation through the pipeline.
func (s *PriceIngestionService) RegisterPrice(ctx context.Context, input RegisterPriceInput) (*RegisterPriceResult, error) {
	start := time.Now()

	hospital, err := s.hospitals.Resolve(ctx, input.Hospital)
	if err != nil {
		return nil, err
	}
	if hospital.HospitalID == "" {
		return nil, apperrors.NewValidationError("hospital id, name or domain is required")
	}

	procedureInput := input.Procedure
	procedureInput.Price = input.Price.Price
	procedureInput.HospitalID = hospital.HospitalID
	procedureInput.SourceURL = input.Hospital.SourceURL

	resolution, err := s.procedures.Resolve(ctx, procedureInput)
	if err != nil {
		return nil, err
	}

	result := &RegisterPriceResult{
		ProcedureID: resolution.ProcedureID.String(),
		HospitalID:  hospital.HospitalID,
		IsCandidate: resolution.IsCandidate,
	}

	// Unresolved names accumulate evidence on their candidate; the price
	// ledger only carries resolved identities.
	if !resolution.IsCandidate || resolution.Method == ResolutionMethodAlias {
		alertsEmitted, err := s.prices.Record(ctx, RecordPriceInput{
			HospitalID:     hospital.HospitalID,
			ProcedureID:    resolution.ProcedureID,
			TargetAreaCode: input.Price.TargetAreaCode,
			Price:          input.Price.Price,
			ShotCount:      input.Price.ShotCount,
			PricePerShot:   input.Price.PricePerShot,
			ScreenshotID:   input.Price.ScreenshotID,
		})
		if err != nil {
			return nil, err
		}
		result.AlertsEmitted = alertsEmitted
	}

	if s.metrics != nil {
		s.metrics.IngestionCount.Add(ctx, 1)
		s.metrics.IngestionDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	observability.LoggerFromContext(ctx).Debug().
		Str("hospital_id", result.HospitalID).
		Str("procedure_id", result.ProcedureID).
		Str("method", resolution.Method).
		Bool("is_candidate", result.IsCandidate).
		Int("alerts_emitted", result.AlertsEmitted).
		Msg("Price registered")

	return result, nil
}
