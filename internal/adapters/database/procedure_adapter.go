package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

var procedureColumns = []interface{}{
	"id", "name", "korean_name", "normalized_name", "category", "manufacturer",
	"equipment_type", "is_verified", "verification_source", "price_count",
	"avg_price", "min_price", "max_price", "is_active", "created_at", "updated_at",
}

// ProcedureAdapter implements ProcedureRepository
type ProcedureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProcedureAdapter creates a new procedure adapter
func NewProcedureAdapter(client *postgres.Client) repositories.ProcedureRepository {
	return &ProcedureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new procedure
func (a *ProcedureAdapter) Create(ctx context.Context, procedure *entities.Procedure) error {
	record := goqu.Record{
		"id":                  procedure.ID,
		"name":                procedure.Name,
		"korean_name":         sql.NullString{String: procedure.KoreanName, Valid: procedure.KoreanName != ""},
		"normalized_name":     procedure.NormalizedName,
		"category":            sql.NullString{String: procedure.Category, Valid: procedure.Category != ""},
		"manufacturer":        sql.NullString{String: procedure.Manufacturer, Valid: procedure.Manufacturer != ""},
		"equipment_type":      sql.NullString{String: procedure.EquipmentType, Valid: procedure.EquipmentType != ""},
		"is_verified":         procedure.IsVerified,
		"verification_source": sql.NullString{String: procedure.VerificationSource, Valid: procedure.VerificationSource != ""},
		"price_count":         procedure.PriceCount,
		"avg_price":           procedure.AvgPrice,
		"min_price":           procedure.MinPrice,
		"max_price":           procedure.MaxPrice,
		"is_active":           procedure.IsActive,
		"created_at":          procedure.CreatedAt,
		"updated_at":          procedure.UpdatedAt,
	}

	query, args, err := a.db.Insert("procedures").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create procedure", err)
	}

	return nil
}

// GetByID retrieves a procedure by ID
func (a *ProcedureAdapter) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("procedure with id %s not found", id))
}

// GetByName retrieves a procedure whose stored name matches the raw or
// normalized form
func (a *ProcedureAdapter) GetByName(ctx context.Context, rawName, normalizedName string) (*entities.Procedure, error) {
	cond := goqu.Or(
		goqu.C("name").Eq(rawName),
		goqu.C("korean_name").Eq(rawName),
		goqu.C("normalized_name").Eq(normalizedName),
	)
	return a.getOne(ctx, cond, fmt.Sprintf("procedure named %q not found", rawName))
}

func (a *ProcedureAdapter) getOne(ctx context.Context, cond goqu.Expression, notFoundMsg string) (*entities.Procedure, error) {
	query, args, err := a.db.Select(procedureColumns...).
		From("procedures").
		Where(cond).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	procedure, err := scanProcedure(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get procedure", err)
	}

	return procedure, nil
}

// List retrieves procedures with filters
func (a *ProcedureAdapter) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	ds := a.db.Select(procedureColumns...).From("procedures").Order(goqu.C("name").Asc())

	if filter.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(filter.Category))
	}
	if filter.IsActive != nil {
		ds = ds.Where(goqu.C("is_active").Eq(*filter.IsActive))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list procedures", err)
	}
	defer rows.Close()

	var procedures []*entities.Procedure
	for rows.Next() {
		procedure, err := scanProcedure(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan procedure", err)
		}
		procedures = append(procedures, procedure)
	}

	return procedures, nil
}

// UpdateStats folds one new price observation into the rolling stats columns
func (a *ProcedureAdapter) UpdateStats(ctx context.Context, id string, price float64) error {
	record := goqu.Record{
		"price_count": goqu.L("price_count + 1"),
		"avg_price":   goqu.L("(avg_price * price_count + ?) / (price_count + 1)", price),
		"min_price":   goqu.L("CASE WHEN price_count = 0 THEN ? ELSE LEAST(min_price, ?) END", price, price),
		"max_price":   goqu.L("GREATEST(max_price, ?)", price),
		"updated_at":  time.Now(),
	}

	query, args, err := a.db.Update("procedures").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update procedure stats", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("procedure with id %s not found", id))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcedure(row rowScanner) (*entities.Procedure, error) {
	procedure := &entities.Procedure{}
	var koreanName, category, manufacturer, equipmentType, verificationSource sql.NullString

	err := row.Scan(
		&procedure.ID,
		&procedure.Name,
		&koreanName,
		&procedure.NormalizedName,
		&category,
		&manufacturer,
		&equipmentType,
		&procedure.IsVerified,
		&verificationSource,
		&procedure.PriceCount,
		&procedure.AvgPrice,
		&procedure.MinPrice,
		&procedure.MaxPrice,
		&procedure.IsActive,
		&procedure.CreatedAt,
		&procedure.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	procedure.KoreanName = koreanName.String
	procedure.Category = category.String
	procedure.Manufacturer = manufacturer.String
	procedure.EquipmentType = equipmentType.String
	procedure.VerificationSource = verificationSource.String

	return procedure, nil
}
