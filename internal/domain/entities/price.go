package entities

import (
	"time"
)

// PriceRecord is the latest-known price snapshot for a
// (hospital, procedure, target area) key.
type PriceRecord struct {
	HospitalID     string    `json:"hospital_id" db:"hospital_id"`
	ProcedureID    string    `json:"procedure_id" db:"procedure_id"`
	TargetAreaCode string    `json:"target_area_code" db:"target_area_code"`
	Price          float64   `json:"price" db:"price"`
	ShotCount      int       `json:"shot_count" db:"shot_count"`
	PricePerShot   float64   `json:"price_per_shot" db:"price_per_shot"`
	ScreenshotID   string    `json:"screenshot_id" db:"screenshot_id"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// PriceHistory is one row in the append-only price ledger. PreviousID links to
// the immediately preceding row for the same key so delta computation never
// scans the timeline. PriceChange and PriceChangePercent are nil on the first
// observation of a key.
type PriceHistory struct {
	ID                 string    `json:"id" db:"id"`
	HospitalID         string    `json:"hospital_id" db:"hospital_id"`
	ProcedureID        string    `json:"procedure_id" db:"procedure_id"`
	TargetAreaCode     string    `json:"target_area_code" db:"target_area_code"`
	Price              float64   `json:"price" db:"price"`
	ShotCount          int       `json:"shot_count" db:"shot_count"`
	PricePerShot       float64   `json:"price_per_shot" db:"price_per_shot"`
	PriceChange        *float64  `json:"price_change" db:"price_change"`
	PriceChangePercent *float64  `json:"price_change_percent" db:"price_change_percent"`
	PreviousID         *string   `json:"previous_id" db:"previous_id"`
	ScreenshotID       string    `json:"screenshot_id" db:"screenshot_id"`
	RecordedAt         time.Time `json:"recorded_at" db:"recorded_at"`
}
