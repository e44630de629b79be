package repositories

import (
	"context"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// PriceChangeAlertRepository defines the interface for alert rows
type PriceChangeAlertRepository interface {
	// Insert writes one alert row
	Insert(ctx context.Context, alert *entities.PriceChangeAlert) error

	// ListBySubscriber lists alerts for a subscriber hospital, newest first
	ListBySubscriber(ctx context.Context, hospitalID string, unreadOnly bool, limit, offset int) ([]*entities.PriceChangeAlert, error)

	// MarkRead flips the read flag; owned by the dashboard API, not the core
	MarkRead(ctx context.Context, id string) error
}
