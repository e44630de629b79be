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

var candidateColumns = []interface{}{
	"id", "raw_name", "normalized_name", "status", "case_count", "price_total",
	"avg_price", "min_price", "max_price", "meets_case_threshold",
	"meets_time_threshold", "linked_procedure_id", "first_seen_at",
	"last_seen_at", "created_at", "updated_at",
}

// CandidateAdapter implements MappingCandidateRepository
type CandidateAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCandidateAdapter creates a new candidate adapter
func NewCandidateAdapter(client *postgres.Client) repositories.MappingCandidateRepository {
	return &CandidateAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new candidate together with its first price sample
func (a *CandidateAdapter) Create(ctx context.Context, candidate *entities.MappingCandidate, firstPrice float64) error {
	record := goqu.Record{
		"id":                   candidate.ID,
		"raw_name":             candidate.RawName,
		"normalized_name":      candidate.NormalizedName,
		"status":               string(candidate.Status),
		"case_count":           candidate.CaseCount,
		"price_total":          candidate.PriceTotal,
		"avg_price":            candidate.AvgPrice,
		"min_price":            candidate.MinPrice,
		"max_price":            candidate.MaxPrice,
		"meets_case_threshold": candidate.MeetsCaseThreshold,
		"meets_time_threshold": candidate.MeetsTimeThreshold,
		"first_seen_at":        candidate.FirstSeenAt,
		"last_seen_at":         candidate.LastSeenAt,
		"created_at":           candidate.CreatedAt,
		"updated_at":           candidate.UpdatedAt,
	}

	query, args, err := a.db.Insert("mapping_candidates").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create candidate", err)
	}

	if firstPrice > 0 {
		if err := a.insertSample(ctx, candidate.ID, firstPrice, candidate.FirstSeenAt); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a candidate by ID
func (a *CandidateAdapter) GetByID(ctx context.Context, id string) (*entities.MappingCandidate, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("candidate with id %s not found", id))
}

// GetByNormalizedName retrieves the non-rejected candidate for a normalized name
func (a *CandidateAdapter) GetByNormalizedName(ctx context.Context, normalizedName string) (*entities.MappingCandidate, error) {
	cond := goqu.And(
		goqu.C("normalized_name").Eq(normalizedName),
		goqu.C("status").Neq(string(entities.CandidateStatusRejected)),
	)
	return a.getOne(ctx, cond, fmt.Sprintf("no live candidate for normalized name %q", normalizedName))
}

func (a *CandidateAdapter) getOne(ctx context.Context, cond goqu.Expression, notFoundMsg string) (*entities.MappingCandidate, error) {
	query, args, err := a.db.Select(candidateColumns...).
		From("mapping_candidates").
		Where(cond).
		Order(goqu.C("created_at").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	candidate, err := scanCandidate(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get candidate", err)
	}

	return candidate, nil
}

// RecordSighting appends a price sample and refreshes the aggregate columns.
// The aggregate update is a single non-transactional statement; concurrent
// sightings can under-count by one, which the approval thresholds tolerate.
func (a *CandidateAdapter) RecordSighting(ctx context.Context, id string, price float64, seenAt time.Time) error {
	record := goqu.Record{
		"case_count":   goqu.L("case_count + 1"),
		"last_seen_at": seenAt,
		"updated_at":   time.Now(),
	}
	if price > 0 {
		record["price_total"] = goqu.L("price_total + ?", price)
		record["avg_price"] = goqu.L("(price_total + ?) / (case_count + 1)", price)
		record["min_price"] = goqu.L("CASE WHEN min_price = 0 THEN ? ELSE LEAST(min_price, ?) END", price, price)
		record["max_price"] = goqu.L("GREATEST(max_price, ?)", price)
	}

	query, args, err := a.db.Update("mapping_candidates").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to record sighting", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("candidate with id %s not found", id))
	}

	if price > 0 {
		return a.insertSample(ctx, id, price, seenAt)
	}
	return nil
}

func (a *CandidateAdapter) insertSample(ctx context.Context, candidateID string, price float64, observedAt time.Time) error {
	query, args, err := a.db.Insert("candidate_price_samples").Rows(goqu.Record{
		"candidate_id": candidateID,
		"price":        price,
		"observed_at":  observedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build sample insert", err)
	}
	if _, err = a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to insert price sample", err)
	}
	return nil
}

// SetThresholdFlags persists the approval-condition flags
func (a *CandidateAdapter) SetThresholdFlags(ctx context.Context, id string, meetsCaseThreshold, meetsTimeThreshold bool) error {
	return a.update(ctx, id, goqu.Record{
		"meets_case_threshold": meetsCaseThreshold,
		"meets_time_threshold": meetsTimeThreshold,
		"updated_at":           time.Now(),
	})
}

// UpdateStatus transitions the candidate status
func (a *CandidateAdapter) UpdateStatus(ctx context.Context, id string, status entities.CandidateStatus) error {
	return a.update(ctx, id, goqu.Record{
		"status":     string(status),
		"updated_at": time.Now(),
	})
}

// LinkProcedure records the procedure a candidate was approved into
func (a *CandidateAdapter) LinkProcedure(ctx context.Context, id string, procedureID string) error {
	return a.update(ctx, id, goqu.Record{
		"linked_procedure_id": procedureID,
		"updated_at":          time.Now(),
	})
}

func (a *CandidateAdapter) update(ctx context.Context, id string, record goqu.Record) error {
	query, args, err := a.db.Update("mapping_candidates").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update candidate", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("candidate with id %s not found", id))
	}

	return nil
}

// ListByStatus lists candidates in a given status, most recently seen first
func (a *CandidateAdapter) ListByStatus(ctx context.Context, status entities.CandidateStatus, limit, offset int) ([]*entities.MappingCandidate, error) {
	ds := a.db.Select(candidateColumns...).
		From("mapping_candidates").
		Where(goqu.Ex{"status": string(status)}).
		Order(goqu.C("last_seen_at").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list candidates", err)
	}
	defer rows.Close()

	var candidates []*entities.MappingCandidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan candidate", err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// ListSamples returns the observed price samples for a candidate
func (a *CandidateAdapter) ListSamples(ctx context.Context, id string) ([]*entities.CandidatePriceSample, error) {
	query, args, err := a.db.Select("id", "candidate_id", "price", "observed_at").
		From("candidate_price_samples").
		Where(goqu.Ex{"candidate_id": id}).
		Order(goqu.C("observed_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list samples", err)
	}
	defer rows.Close()

	var samples []*entities.CandidatePriceSample
	for rows.Next() {
		sample := &entities.CandidatePriceSample{}
		if err := rows.Scan(&sample.ID, &sample.CandidateID, &sample.Price, &sample.ObservedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan sample", err)
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

func scanCandidate(row rowScanner) (*entities.MappingCandidate, error) {
	candidate := &entities.MappingCandidate{}
	var status string
	var linkedProcedureID sql.NullString

	err := row.Scan(
		&candidate.ID,
		&candidate.RawName,
		&candidate.NormalizedName,
		&status,
		&candidate.CaseCount,
		&candidate.PriceTotal,
		&candidate.AvgPrice,
		&candidate.MinPrice,
		&candidate.MaxPrice,
		&candidate.MeetsCaseThreshold,
		&candidate.MeetsTimeThreshold,
		&linkedProcedureID,
		&candidate.FirstSeenAt,
		&candidate.LastSeenAt,
		&candidate.CreatedAt,
		&candidate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	candidate.Status = entities.CandidateStatus(status)
	if linkedProcedureID.Valid {
		candidate.LinkedProcedureID = &linkedProcedureID.String
	}

	return candidate, nil
}
