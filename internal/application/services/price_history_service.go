package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// RecordPriceInput is one price observation for a resolved procedure identity.
type RecordPriceInput struct {
	HospitalID     string
	ProcedureID    entities.ResolvedID
	TargetAreaCode string
	Price          float64
	ShotCount      int
	PricePerShot   float64
	ScreenshotID   string
}

// PriceHistoryService appends price observations to the per-key ledger,
// computes deltas against the previous observation, keeps the latest-snapshot
// table current and hands significant changes to the fan-out engine.
//
// The read-previous-then-insert step is deliberately not transactional:
// concurrent observations for the same key may compute the same delta twice,
// which is an accepted trade-off rather than corruption.
type PriceHistoryService struct {
	historyRepo   repositories.PriceHistoryRepository
	recordRepo    repositories.PriceRecordRepository
	procedureRepo repositories.ProcedureRepository
	settingsRepo  repositories.SettingsRepository
	fanout        *AlertFanoutService
}

// NewPriceHistoryService creates a new price history service
func NewPriceHistoryService(
	historyRepo repositories.PriceHistoryRepository,
	recordRepo repositories.PriceRecordRepository,
	procedureRepo repositories.ProcedureRepository,
	settingsRepo repositories.SettingsRepository,
	fanout *AlertFanoutService,
) *PriceHistoryService {
	return &PriceHistoryService{
		historyRepo:   historyRepo,
		recordRepo:    recordRepo,
		procedureRepo: procedureRepo,
		settingsRepo:  settingsRepo,
		fanout:        fanout,
	}
}

// Record appends one observation and returns how many alerts the resulting
// change emitted.
func (s *PriceHistoryService) Record(ctx context.Context, input RecordPriceInput) (int, error) {
	procedureID := input.ProcedureID.String()
	now := time.Now()

	pricePerShot := input.PricePerShot
	if pricePerShot == 0 && input.ShotCount > 0 {
		pricePerShot = input.Price / float64(input.ShotCount)
	}

	row := &entities.PriceHistory{
		ID:             uuid.New().String(),
		HospitalID:     input.HospitalID,
		ProcedureID:    procedureID,
		TargetAreaCode: input.TargetAreaCode,
		Price:          input.Price,
		ShotCount:      input.ShotCount,
		PricePerShot:   pricePerShot,
		ScreenshotID:   input.ScreenshotID,
		RecordedAt:     now,
	}

	previous, err := s.historyRepo.GetLatest(ctx, input.HospitalID, procedureID, input.TargetAreaCode)
	if err != nil && !apperrors.IsNotFound(err) {
		return 0, err
	}
	if previous != nil {
		change := input.Price - previous.Price
		percent := math.Round(change / previous.Price * 100)
		row.PriceChange = &change
		row.PriceChangePercent = &percent
		row.PreviousID = &previous.ID
	}

	if err := s.historyRepo.Insert(ctx, row); err != nil {
		return 0, err
	}

	snapshot := &entities.PriceRecord{
		HospitalID:     input.HospitalID,
		ProcedureID:    procedureID,
		TargetAreaCode: input.TargetAreaCode,
		Price:          input.Price,
		ShotCount:      input.ShotCount,
		PricePerShot:   pricePerShot,
		ScreenshotID:   input.ScreenshotID,
		UpdatedAt:      now,
	}
	if err := s.recordRepo.Upsert(ctx, snapshot); err != nil {
		return 0, err
	}

	// Rolling stats only exist on single procedures, not packages.
	if input.ProcedureID.Kind == entities.IDKindProcedure {
		if err := s.procedureRepo.UpdateStats(ctx, input.ProcedureID.Value, input.Price); err != nil {
			// Stats drift is recoverable from the ledger; the observation
			// itself already landed.
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("procedure_id", input.ProcedureID.Value).
				Msg("Failed to update procedure stats")
		}
	}

	if row.PriceChangePercent == nil {
		return 0, nil
	}

	settings, err := s.settingsRepo.GetPriceWatchSettings(ctx)
	if err != nil {
		return 0, err
	}
	if math.Abs(*row.PriceChangePercent) < settings.AlertThresholdPercent {
		return 0, nil
	}

	return s.fanout.FanOut(ctx, PriceChangeEvent{
		CompetitorHospitalID: input.HospitalID,
		ProcedureID:          procedureID,
		TargetAreaCode:       input.TargetAreaCode,
		OldPrice:             previous.Price,
		NewPrice:             input.Price,
		PriceChange:          *row.PriceChange,
		PriceChangePercent:   *row.PriceChangePercent,
	})
}

// History returns the ledger rows for a key, newest first.
func (s *PriceHistoryService) History(ctx context.Context, hospitalID, procedureID, targetAreaCode string, limit int) ([]*entities.PriceHistory, error) {
	return s.historyRepo.ListByKey(ctx, hospitalID, procedureID, targetAreaCode, limit)
}
