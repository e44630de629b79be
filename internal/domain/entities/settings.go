package entities

import (
	"time"
)

// CompetitorSettings records which competitor hospitals a subscriber watches.
// AutoDetect is a broad opt-in: the subscriber receives alerts for every
// hospital, not just the ones listed.
type CompetitorSettings struct {
	HospitalID    string    `json:"hospital_id" db:"hospital_id"`
	CompetitorIDs []string  `json:"competitor_ids" db:"competitor_ids"`
	AutoDetect    bool      `json:"auto_detect" db:"auto_detect"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// PriceWatchSettings holds the significance thresholds for alert fan-out,
// expressed in absolute percent.
type PriceWatchSettings struct {
	AlertThresholdPercent  float64   `json:"alert_threshold_percent" db:"alert_threshold_percent"`
	UrgentThresholdPercent float64   `json:"urgent_threshold_percent" db:"urgent_threshold_percent"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPriceWatchSettings returns the thresholds used when no row exists.
func DefaultPriceWatchSettings() *PriceWatchSettings {
	return &PriceWatchSettings{
		AlertThresholdPercent:  10,
		UrgentThresholdPercent: 20,
	}
}

// MappingApprovalSettings holds the evidence thresholds a mapping candidate
// must accumulate before it is surfaced for human review.
type MappingApprovalSettings struct {
	MinCases  int       `json:"min_cases" db:"min_cases"`
	MinDays   int       `json:"min_days" db:"min_days"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultMappingApprovalSettings returns the thresholds used when no row exists.
func DefaultMappingApprovalSettings() *MappingApprovalSettings {
	return &MappingApprovalSettings{
		MinCases: 5,
		MinDays:  7,
	}
}
