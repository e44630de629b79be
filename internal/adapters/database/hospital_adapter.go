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

// HospitalAdapter implements HospitalRepository
type HospitalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHospitalAdapter creates a new hospital adapter
func NewHospitalAdapter(client *postgres.Client) repositories.HospitalRepository {
	return &HospitalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new hospital
func (a *HospitalAdapter) Create(ctx context.Context, hospital *entities.Hospital) error {
	record := goqu.Record{
		"id":         hospital.ID,
		"name":       hospital.Name,
		"domain":     sql.NullString{String: hospital.Domain, Valid: hospital.Domain != ""},
		"region":     sql.NullString{String: hospital.Region, Valid: hospital.Region != ""},
		"created_at": hospital.CreatedAt,
		"updated_at": hospital.UpdatedAt,
	}

	query, args, err := a.db.Insert("hospitals").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create hospital", err)
	}

	return nil
}

// GetByID retrieves a hospital by ID
func (a *HospitalAdapter) GetByID(ctx context.Context, id string) (*entities.Hospital, error) {
	return a.getByField(ctx, "id", id)
}

// GetByDomain retrieves a hospital by exact domain match
func (a *HospitalAdapter) GetByDomain(ctx context.Context, domain string) (*entities.Hospital, error) {
	return a.getByField(ctx, "domain", domain)
}

// GetByName retrieves a hospital by exact name match
func (a *HospitalAdapter) GetByName(ctx context.Context, name string) (*entities.Hospital, error) {
	return a.getByField(ctx, "name", name)
}

func (a *HospitalAdapter) getByField(ctx context.Context, field, value string) (*entities.Hospital, error) {
	query, args, err := a.db.Select(
		"id", "name", "domain", "region", "created_at", "updated_at",
	).From("hospitals").
		Where(goqu.Ex{field: value}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	hospital := &entities.Hospital{}
	var domain, region sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&hospital.ID,
		&hospital.Name,
		&domain,
		&region,
		&hospital.CreatedAt,
		&hospital.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("hospital with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get hospital", err)
	}

	hospital.Domain = domain.String
	hospital.Region = region.String

	return hospital, nil
}
