package repositories

import (
	"context"
	"time"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// MappingCandidateRepository defines the interface for mapping-candidate data.
//
// RecordSighting is deliberately a read-modify-write of the aggregate columns
// rather than a transactional upsert: concurrent sightings may under-count by
// one per race, which downstream threshold checks tolerate.
type MappingCandidateRepository interface {
	// Create creates a new candidate together with its first price sample
	Create(ctx context.Context, candidate *entities.MappingCandidate, firstPrice float64) error

	// GetByID retrieves a candidate by ID
	GetByID(ctx context.Context, id string) (*entities.MappingCandidate, error)

	// GetByNormalizedName retrieves the non-rejected candidate for a
	// normalized name
	GetByNormalizedName(ctx context.Context, normalizedName string) (*entities.MappingCandidate, error)

	// RecordSighting appends a price sample and refreshes case count,
	// aggregates and last-seen for the candidate
	RecordSighting(ctx context.Context, id string, price float64, seenAt time.Time) error

	// SetThresholdFlags persists the approval-condition flags
	SetThresholdFlags(ctx context.Context, id string, meetsCaseThreshold, meetsTimeThreshold bool) error

	// UpdateStatus transitions the candidate status
	UpdateStatus(ctx context.Context, id string, status entities.CandidateStatus) error

	// LinkProcedure records the procedure a candidate was approved into
	LinkProcedure(ctx context.Context, id string, procedureID string) error

	// ListByStatus lists candidates in a given status, most recently seen first
	ListByStatus(ctx context.Context, status entities.CandidateStatus, limit, offset int) ([]*entities.MappingCandidate, error)

	// ListSamples returns the observed price samples for a candidate in
	// observation order
	ListSamples(ctx context.Context, id string) ([]*entities.CandidatePriceSample, error)
}

// CollectedNameRepository defines the write-once audit log of raw surface names
type CollectedNameRepository interface {
	// Record appends one audit row
	Record(ctx context.Context, collected *entities.CollectedProcedureName) error
}
