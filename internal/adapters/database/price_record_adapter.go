package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// PriceRecordAdapter implements PriceRecordRepository
type PriceRecordAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPriceRecordAdapter creates a new price record adapter
func NewPriceRecordAdapter(client *postgres.Client) repositories.PriceRecordRepository {
	return &PriceRecordAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert writes the latest snapshot for a key
func (a *PriceRecordAdapter) Upsert(ctx context.Context, record *entities.PriceRecord) error {
	row := goqu.Record{
		"hospital_id":      record.HospitalID,
		"procedure_id":     record.ProcedureID,
		"target_area_code": record.TargetAreaCode,
		"price":            record.Price,
		"shot_count":       record.ShotCount,
		"price_per_shot":   record.PricePerShot,
		"screenshot_id":    sql.NullString{String: record.ScreenshotID, Valid: record.ScreenshotID != ""},
		"updated_at":       record.UpdatedAt,
	}

	query, args, err := a.db.Insert("price_records").
		Rows(row).
		OnConflict(goqu.DoUpdate("hospital_id, procedure_id, target_area_code", goqu.Record{
			"price":          record.Price,
			"shot_count":     record.ShotCount,
			"price_per_shot": record.PricePerShot,
			"screenshot_id":  sql.NullString{String: record.ScreenshotID, Valid: record.ScreenshotID != ""},
			"updated_at":     record.UpdatedAt,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert price record", err)
	}

	return nil
}

// Get returns the snapshot for a key
func (a *PriceRecordAdapter) Get(ctx context.Context, hospitalID, procedureID, targetAreaCode string) (*entities.PriceRecord, error) {
	query, args, err := a.db.Select(
		"hospital_id", "procedure_id", "target_area_code", "price",
		"shot_count", "price_per_shot", "screenshot_id", "updated_at",
	).From("price_records").
		Where(goqu.Ex{
			"hospital_id":      hospitalID,
			"procedure_id":     procedureID,
			"target_area_code": targetAreaCode,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record := &entities.PriceRecord{}
	var screenshotID sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&record.HospitalID,
		&record.ProcedureID,
		&record.TargetAreaCode,
		&record.Price,
		&record.ShotCount,
		&record.PricePerShot,
		&screenshotID,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf(
			"no price record for hospital %s procedure %s area %s", hospitalID, procedureID, targetAreaCode))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get price record", err)
	}

	record.ScreenshotID = screenshotID.String
	return record, nil
}
