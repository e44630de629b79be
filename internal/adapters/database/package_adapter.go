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

// PackageAdapter implements ProcedurePackageRepository
type PackageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPackageAdapter creates a new package adapter
func NewPackageAdapter(client *postgres.Client) repositories.ProcedurePackageRepository {
	return &PackageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new package
func (a *PackageAdapter) Create(ctx context.Context, pkg *entities.ProcedurePackage) error {
	record := goqu.Record{
		"id":              pkg.ID,
		"name":            pkg.Name,
		"normalized_name": pkg.NormalizedName,
		"procedure_ids":   pq.Array(pkg.ProcedureIDs),
		"category":        sql.NullString{String: pkg.Category, Valid: pkg.Category != ""},
		"created_at":      pkg.CreatedAt,
		"updated_at":      pkg.UpdatedAt,
	}

	query, args, err := a.db.Insert("procedure_packages").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create package", err)
	}

	return nil
}

// GetByName retrieves a package whose stored name matches the raw or
// normalized form
func (a *PackageAdapter) GetByName(ctx context.Context, rawName, normalizedName string) (*entities.ProcedurePackage, error) {
	query, args, err := a.db.Select(
		"id", "name", "normalized_name", "procedure_ids", "category", "created_at", "updated_at",
	).From("procedure_packages").
		Where(goqu.Or(
			goqu.C("name").Eq(rawName),
			goqu.C("normalized_name").Eq(normalizedName),
		)).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	pkg := &entities.ProcedurePackage{}
	var category sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.NormalizedName,
		pq.Array(&pkg.ProcedureIDs),
		&category,
		&pkg.CreatedAt,
		&pkg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no package named %q", rawName))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get package", err)
	}

	pkg.Category = category.String
	return pkg, nil
}
