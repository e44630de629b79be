package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

func setupCandidateAdapter(t *testing.T) (repositories.MappingCandidateRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewCandidateAdapter(postgres.NewClientFromDB(mockDB)), mock
}

func testCandidate() *entities.MappingCandidate {
	now := time.Now()
	return &entities.MappingCandidate{
		ID:             "cand-1",
		RawName:        "핑크주사",
		NormalizedName: "핑크주사",
		Status:         entities.CandidateStatusCollecting,
		CaseCount:      1,
		PriceTotal:     150000,
		AvgPrice:       150000,
		MinPrice:       150000,
		MaxPrice:       150000,
		FirstSeenAt:    now,
		LastSeenAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCandidateAdapter_CreateWritesFirstSample(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	mock.ExpectExec(`INSERT INTO "mapping_candidates"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "candidate_price_samples"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.Create(context.Background(), testCandidate(), 150000)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateAdapter_CreateWithoutPriceSkipsSample(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	mock.ExpectExec(`INSERT INTO "mapping_candidates"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	candidate := testCandidate()
	candidate.PriceTotal = 0
	candidate.AvgPrice = 0
	candidate.MinPrice = 0
	candidate.MaxPrice = 0

	err := adapter.Create(context.Background(), candidate, 0)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateAdapter_RecordSightingUpdatesAggregatesAndAppendsSample(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	mock.ExpectExec(`UPDATE "mapping_candidates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "candidate_price_samples"`).
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := adapter.RecordSighting(context.Background(), "cand-1", 180000, time.Now())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateAdapter_RecordSightingUnknownCandidate(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	mock.ExpectExec(`UPDATE "mapping_candidates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.RecordSighting(context.Background(), "missing", 180000, time.Now())

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateAdapter_GetByNormalizedName(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "raw_name", "normalized_name", "status", "case_count", "price_total",
		"avg_price", "min_price", "max_price", "meets_case_threshold",
		"meets_time_threshold", "linked_procedure_id", "first_seen_at",
		"last_seen_at", "created_at", "updated_at",
	}).AddRow(
		"cand-1", "핑크주사", "핑크주사", "collecting", 3, 450000.0,
		150000.0, 140000.0, 160000.0, false, false, nil, now, now, now, now,
	)
	mock.ExpectQuery(`SELECT .+ FROM "mapping_candidates"`).WillReturnRows(rows)

	candidate, err := adapter.GetByNormalizedName(context.Background(), "핑크주사")

	require.NoError(t, err)
	assert.Equal(t, "cand-1", candidate.ID)
	assert.Equal(t, entities.CandidateStatusCollecting, candidate.Status)
	assert.Equal(t, 3, candidate.CaseCount)
	assert.Nil(t, candidate.LinkedProcedureID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateAdapter_GetByIDNotFound(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "mapping_candidates"`).
		WillReturnError(sql.ErrNoRows)

	_, err := adapter.GetByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCandidateAdapter_UpdateStatusNotFound(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	mock.ExpectExec(`UPDATE "mapping_candidates" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.UpdateStatus(context.Background(), "missing", entities.CandidateStatusPendingReview)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCandidateAdapter_ListSamples(t *testing.T) {
	adapter, mock := setupCandidateAdapter(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "candidate_id", "price", "observed_at"}).
		AddRow(int64(1), "cand-1", 150000.0, now.Add(-time.Hour)).
		AddRow(int64(2), "cand-1", 180000.0, now)
	mock.ExpectQuery(`SELECT .+ FROM "candidate_price_samples"`).WillReturnRows(rows)

	samples, err := adapter.ListSamples(context.Background(), "cand-1")

	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, float64(150000), samples[0].Price)
	assert.Equal(t, float64(180000), samples[1].Price)
}
