package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// SettingsAdapter implements SettingsRepository. The core only ever reads
// these tables; the admin CRUD layer writes them.
type SettingsAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSettingsAdapter creates a new settings adapter
func NewSettingsAdapter(client *postgres.Client) repositories.SettingsRepository {
	return &SettingsAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetMappingApprovalSettings returns candidate-approval thresholds, falling
// back to defaults when no row exists
func (a *SettingsAdapter) GetMappingApprovalSettings(ctx context.Context) (*entities.MappingApprovalSettings, error) {
	query, args, err := a.db.Select("min_cases", "min_days", "updated_at").
		From("mapping_approval_settings").
		Order(goqu.C("updated_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	settings := &entities.MappingApprovalSettings{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&settings.MinCases,
		&settings.MinDays,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return entities.DefaultMappingApprovalSettings(), nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get mapping approval settings", err)
	}

	return settings, nil
}

// GetPriceWatchSettings returns alert significance thresholds, falling back
// to defaults when no row exists
func (a *SettingsAdapter) GetPriceWatchSettings(ctx context.Context) (*entities.PriceWatchSettings, error) {
	query, args, err := a.db.Select("alert_threshold_percent", "urgent_threshold_percent", "updated_at").
		From("price_watch_settings").
		Order(goqu.C("updated_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	settings := &entities.PriceWatchSettings{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&settings.AlertThresholdPercent,
		&settings.UrgentThresholdPercent,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return entities.DefaultPriceWatchSettings(), nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get price watch settings", err)
	}

	return settings, nil
}

// GetCompetitorSettings returns the competitor list for one hospital
func (a *SettingsAdapter) GetCompetitorSettings(ctx context.Context, hospitalID string) (*entities.CompetitorSettings, error) {
	query, args, err := a.db.Select("hospital_id", "competitor_ids", "auto_detect", "updated_at").
		From("competitor_settings").
		Where(goqu.Ex{"hospital_id": hospitalID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	settings := &entities.CompetitorSettings{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&settings.HospitalID,
		pq.Array(&settings.CompetitorIDs),
		&settings.AutoDetect,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no competitor settings for hospital %s", hospitalID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get competitor settings", err)
	}

	return settings, nil
}

// ListSubscribers returns ids of hospitals that watch the given hospital
func (a *SettingsAdapter) ListSubscribers(ctx context.Context, competitorHospitalID string) ([]string, error) {
	query, args, err := a.db.Select("hospital_id").
		From("competitor_settings").
		Where(
			goqu.Or(
				goqu.C("auto_detect").IsTrue(),
				goqu.L("? = ANY(competitor_ids)", competitorHospitalID),
			),
			goqu.C("hospital_id").Neq(competitorHospitalID),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list subscribers", err)
	}
	defer rows.Close()

	var subscribers []string
	for rows.Next() {
		var hospitalID string
		if err := rows.Scan(&hospitalID); err != nil {
			return nil, apperrors.NewInternalError("failed to scan subscriber", err)
		}
		subscribers = append(subscribers, hospitalID)
	}

	return subscribers, nil
}
