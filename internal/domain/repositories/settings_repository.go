package repositories

import (
	"context"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// SettingsRepository reads configuration rows owned by the admin CRUD layer.
// The core only ever reads these; missing rows yield defaults.
type SettingsRepository interface {
	// GetMappingApprovalSettings returns candidate-approval thresholds
	GetMappingApprovalSettings(ctx context.Context) (*entities.MappingApprovalSettings, error)

	// GetPriceWatchSettings returns alert significance thresholds
	GetPriceWatchSettings(ctx context.Context) (*entities.PriceWatchSettings, error)

	// GetCompetitorSettings returns the competitor list for one hospital
	GetCompetitorSettings(ctx context.Context, hospitalID string) (*entities.CompetitorSettings, error)

	// ListSubscribers returns ids of hospitals that watch the given hospital,
	// either by explicit competitor list or by auto-detect opt-in
	ListSubscribers(ctx context.Context, competitorHospitalID string) ([]string, error)
}
