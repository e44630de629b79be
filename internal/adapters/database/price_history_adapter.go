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

var priceHistoryColumns = []interface{}{
	"id", "hospital_id", "procedure_id", "target_area_code", "price",
	"shot_count", "price_per_shot", "price_change", "price_change_percent",
	"previous_id", "screenshot_id", "recorded_at",
}

// PriceHistoryAdapter implements PriceHistoryRepository
type PriceHistoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPriceHistoryAdapter creates a new price history adapter
func NewPriceHistoryAdapter(client *postgres.Client) repositories.PriceHistoryRepository {
	return &PriceHistoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Insert appends one history row; rows are never updated
func (a *PriceHistoryAdapter) Insert(ctx context.Context, row *entities.PriceHistory) error {
	record := goqu.Record{
		"id":                   row.ID,
		"hospital_id":          row.HospitalID,
		"procedure_id":         row.ProcedureID,
		"target_area_code":     row.TargetAreaCode,
		"price":                row.Price,
		"shot_count":           row.ShotCount,
		"price_per_shot":       row.PricePerShot,
		"price_change":         nullFloat(row.PriceChange),
		"price_change_percent": nullFloat(row.PriceChangePercent),
		"previous_id":          nullString(row.PreviousID),
		"screenshot_id":        sql.NullString{String: row.ScreenshotID, Valid: row.ScreenshotID != ""},
		"recorded_at":          row.RecordedAt,
	}

	query, args, err := a.db.Insert("price_history").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to insert price history", err)
	}

	return nil
}

// GetLatest returns the most recent history row for the exact key
func (a *PriceHistoryAdapter) GetLatest(ctx context.Context, hospitalID, procedureID, targetAreaCode string) (*entities.PriceHistory, error) {
	query, args, err := a.db.Select(priceHistoryColumns...).
		From("price_history").
		Where(goqu.Ex{
			"hospital_id":      hospitalID,
			"procedure_id":     procedureID,
			"target_area_code": targetAreaCode,
		}).
		Order(goqu.C("recorded_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row, err := scanPriceHistory(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf(
			"no price history for hospital %s procedure %s area %s", hospitalID, procedureID, targetAreaCode))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get latest price history", err)
	}

	return row, nil
}

// ListByKey returns history rows for a key, newest first
func (a *PriceHistoryAdapter) ListByKey(ctx context.Context, hospitalID, procedureID, targetAreaCode string, limit int) ([]*entities.PriceHistory, error) {
	ds := a.db.Select(priceHistoryColumns...).
		From("price_history").
		Where(goqu.Ex{
			"hospital_id":      hospitalID,
			"procedure_id":     procedureID,
			"target_area_code": targetAreaCode,
		}).
		Order(goqu.C("recorded_at").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list price history", err)
	}
	defer rows.Close()

	var history []*entities.PriceHistory
	for rows.Next() {
		row, err := scanPriceHistory(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan price history", err)
		}
		history = append(history, row)
	}

	return history, nil
}

func scanPriceHistory(row rowScanner) (*entities.PriceHistory, error) {
	h := &entities.PriceHistory{}
	var priceChange, priceChangePercent sql.NullFloat64
	var previousID, screenshotID sql.NullString

	err := row.Scan(
		&h.ID,
		&h.HospitalID,
		&h.ProcedureID,
		&h.TargetAreaCode,
		&h.Price,
		&h.ShotCount,
		&h.PricePerShot,
		&priceChange,
		&priceChangePercent,
		&previousID,
		&screenshotID,
		&h.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	if priceChange.Valid {
		h.PriceChange = &priceChange.Float64
	}
	if priceChangePercent.Valid {
		h.PriceChangePercent = &priceChangePercent.Float64
	}
	if previousID.Valid {
		h.PreviousID = &previousID.String
	}
	h.ScreenshotID = screenshotID.String

	return h, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
