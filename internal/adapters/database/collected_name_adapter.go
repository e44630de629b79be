package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

// CollectedNameAdapter implements CollectedNameRepository
type CollectedNameAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCollectedNameAdapter creates a new collected-name adapter
func NewCollectedNameAdapter(client *postgres.Client) repositories.CollectedNameRepository {
	return &CollectedNameAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Record appends one write-once audit row
func (a *CollectedNameAdapter) Record(ctx context.Context, collected *entities.CollectedProcedureName) error {
	record := goqu.Record{
		"id":              collected.ID,
		"raw_name":        collected.RawName,
		"normalized_name": collected.NormalizedName,
		"candidate_id":    collected.CandidateID,
		"hospital_id":     sql.NullString{String: collected.HospitalID, Valid: collected.HospitalID != ""},
		"source_url":      sql.NullString{String: collected.SourceURL, Valid: collected.SourceURL != ""},
		"collected_at":    collected.CollectedAt,
	}

	query, args, err := a.db.Insert("collected_procedure_names").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record collected name", err)
	}

	return nil
}
