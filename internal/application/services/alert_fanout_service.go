package services

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/providers"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// PriceChangeEvent describes one significant competitor price change to fan
// out. ProcedureID is the wire-format id as stored in the price tables.
type PriceChangeEvent struct {
	CompetitorHospitalID string
	ProcedureID          string
	TargetAreaCode       string
	OldPrice             float64
	NewPrice             float64
	PriceChange          float64
	PriceChangePercent   float64
}

// AlertFanoutService emits one PriceChangeAlert per subscriber hospital for a
// significant price change. Subscribers are processed in parallel and
// independently: one subscriber's write failing never blocks the others.
type AlertFanoutService struct {
	settingsRepo repositories.SettingsRepository
	recordRepo   repositories.PriceRecordRepository
	alertRepo    repositories.PriceChangeAlertRepository
	eventBus     providers.EventBus
	metrics      *observability.Metrics
}

// NewAlertFanoutService creates a new alert fanout service
func NewAlertFanoutService(
	settingsRepo repositories.SettingsRepository,
	recordRepo repositories.PriceRecordRepository,
	alertRepo repositories.PriceChangeAlertRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *AlertFanoutService {
	return &AlertFanoutService{
		settingsRepo: settingsRepo,
		recordRepo:   recordRepo,
		alertRepo:    alertRepo,
		eventBus:     eventBus,
		metrics:      metrics,
	}
}

// FanOut writes one alert row per subscriber and returns how many were
// emitted successfully.
func (s *AlertFanoutService) FanOut(ctx context.Context, event PriceChangeEvent) (int, error) {
	subscribers, err := s.settingsRepo.ListSubscribers(ctx, event.CompetitorHospitalID)
	if err != nil {
		return 0, err
	}
	if len(subscribers) == 0 {
		return 0, nil
	}

	settings, err := s.settingsRepo.GetPriceWatchSettings(ctx)
	if err != nil {
		return 0, err
	}

	alertType := entities.AlertTypePriceRise
	if event.PriceChange < 0 {
		alertType = entities.AlertTypePriceDrop
	}
	severity := entities.AlertSeverityWarning
	if math.Abs(event.PriceChangePercent) >= settings.UrgentThresholdPercent {
		severity = entities.AlertSeverityUrgent
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		emitted int
	)
	for _, subscriberID := range subscribers {
		wg.Add(1)
		go func(subscriberID string) {
			defer wg.Done()
			if err := s.emitAlert(ctx, event, subscriberID, alertType, severity); err != nil {
				observability.LoggerFromContext(ctx).Error().Err(err).
					Str("subscriber_hospital_id", subscriberID).
					Str("procedure_id", event.ProcedureID).
					Msg("Failed to emit price change alert")
				return
			}
			mu.Lock()
			emitted++
			mu.Unlock()
		}(subscriberID)
	}
	wg.Wait()

	if s.metrics != nil && emitted > 0 {
		s.metrics.AlertFanoutCount.Add(ctx, int64(emitted))
	}

	return emitted, nil
}

func (s *AlertFanoutService) emitAlert(
	ctx context.Context,
	event PriceChangeEvent,
	subscriberID string,
	alertType entities.AlertType,
	severity entities.AlertSeverity,
) error {
	alert := &entities.PriceChangeAlert{
		ID:                   uuid.New().String(),
		SubscriberHospitalID: subscriberID,
		CompetitorHospitalID: event.CompetitorHospitalID,
		ProcedureID:          event.ProcedureID,
		TargetAreaCode:       event.TargetAreaCode,
		OldPrice:             event.OldPrice,
		NewPrice:             event.NewPrice,
		PriceChange:          event.PriceChange,
		PriceChangePercent:   event.PriceChangePercent,
		AlertType:            alertType,
		Severity:             severity,
		CreatedAt:            time.Now(),
	}

	// Enrich with the subscriber's own comparable price when one exists.
	record, err := s.recordRepo.Get(ctx, subscriberID, event.ProcedureID, event.TargetAreaCode)
	if err == nil {
		gap := event.NewPrice - record.Price
		alert.SubscriberPrice = &record.Price
		alert.PriceGap = &gap
		if record.Price != 0 {
			gapPercent := math.Round(gap / record.Price * 100)
			alert.PriceGapPercent = &gapPercent
		}
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	if err := s.alertRepo.Insert(ctx, alert); err != nil {
		return err
	}

	if s.eventBus != nil {
		busEvent := &entities.AlertEvent{
			ID:        uuid.New().String(),
			Type:      string(alertType),
			Alert:     alert,
			Timestamp: alert.CreatedAt,
		}
		if err := s.eventBus.Publish(ctx, providers.EventChannelPriceAlerts, busEvent); err != nil {
			// The row is the source of truth; a missed broadcast only delays
			// live dashboards until their next poll.
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("alert_id", alert.ID).
				Msg("Failed to publish alert event")
		}
	}

	return nil
}
