package entities

import (
	"time"
)

// CandidateStatus is the lifecycle state of a mapping candidate.
type CandidateStatus string

const (
	CandidateStatusCollecting    CandidateStatus = "collecting"
	CandidateStatusPendingReview CandidateStatus = "pending_review"
	CandidateStatusApproved      CandidateStatus = "approved"
	CandidateStatusRejected      CandidateStatus = "rejected"
)

// IsTerminal reports whether the status is a terminal state.
func (s CandidateStatus) IsTerminal() bool {
	return s == CandidateStatusApproved || s == CandidateStatusRejected
}

// MappingCandidate is an unresolved surface name under observation. Exactly one
// live candidate exists per normalized name; repeated sightings accumulate case
// counts and price samples until the approval conditions are met.
type MappingCandidate struct {
	ID                 string          `json:"id" db:"id"`
	RawName            string          `json:"raw_name" db:"raw_name"`
	NormalizedName     string          `json:"normalized_name" db:"normalized_name"`
	Status             CandidateStatus `json:"status" db:"status"`
	CaseCount          int             `json:"case_count" db:"case_count"`
	PriceTotal         float64         `json:"price_total" db:"price_total"`
	AvgPrice           float64         `json:"avg_price" db:"avg_price"`
	MinPrice           float64         `json:"min_price" db:"min_price"`
	MaxPrice           float64         `json:"max_price" db:"max_price"`
	MeetsCaseThreshold bool            `json:"meets_case_threshold" db:"meets_case_threshold"`
	MeetsTimeThreshold bool            `json:"meets_time_threshold" db:"meets_time_threshold"`
	LinkedProcedureID  *string         `json:"linked_procedure_id" db:"linked_procedure_id"`
	FirstSeenAt        time.Time       `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt         time.Time       `json:"last_seen_at" db:"last_seen_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// CandidatePriceSample is one observed price for a candidate, stored in an
// append-only child table rather than a serialized blob on the candidate row.
type CandidatePriceSample struct {
	ID          int64     `json:"id" db:"id"`
	CandidateID string    `json:"candidate_id" db:"candidate_id"`
	Price       float64   `json:"price" db:"price"`
	ObservedAt  time.Time `json:"observed_at" db:"observed_at"`
}

// CollectedProcedureName is the write-once audit record of a raw surface name
// exactly as first observed.
type CollectedProcedureName struct {
	ID             string    `json:"id" db:"id"`
	RawName        string    `json:"raw_name" db:"raw_name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	CandidateID    string    `json:"candidate_id" db:"candidate_id"`
	HospitalID     string    `json:"hospital_id" db:"hospital_id"`
	SourceURL      string    `json:"source_url" db:"source_url"`
	CollectedAt    time.Time `json:"collected_at" db:"collected_at"`
}
