package entities

import (
	"time"
)

// AlertType classifies the direction of a price change.
type AlertType string

const (
	AlertTypePriceDrop AlertType = "price_drop"
	AlertTypePriceRise AlertType = "price_rise"
)

// AlertSeverity classifies the magnitude of a price change.
type AlertSeverity string

const (
	AlertSeverityWarning AlertSeverity = "warning"
	AlertSeverityUrgent  AlertSeverity = "urgent"
)

// PriceChangeAlert is one fan-out row per subscriber hospital for a significant
// competitor price change. Rows are immutable except the read flag, which the
// dashboard API owns.
type PriceChangeAlert struct {
	ID                   string        `json:"id" db:"id"`
	SubscriberHospitalID string        `json:"subscriber_hospital_id" db:"subscriber_hospital_id"`
	CompetitorHospitalID string        `json:"competitor_hospital_id" db:"competitor_hospital_id"`
	ProcedureID          string        `json:"procedure_id" db:"procedure_id"`
	TargetAreaCode       string        `json:"target_area_code" db:"target_area_code"`
	OldPrice             float64       `json:"old_price" db:"old_price"`
	NewPrice             float64       `json:"new_price" db:"new_price"`
	PriceChange          float64       `json:"price_change" db:"price_change"`
	PriceChangePercent   float64       `json:"price_change_percent" db:"price_change_percent"`
	SubscriberPrice      *float64      `json:"subscriber_price" db:"subscriber_price"`
	PriceGap             *float64      `json:"price_gap" db:"price_gap"`
	PriceGapPercent      *float64      `json:"price_gap_percent" db:"price_gap_percent"`
	AlertType            AlertType     `json:"alert_type" db:"alert_type"`
	Severity             AlertSeverity `json:"severity" db:"severity"`
	IsRead               bool          `json:"is_read" db:"is_read"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
}

// AlertEvent is the payload broadcast over the event bus when an alert row is
// written, so live dashboards can react without polling.
type AlertEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Alert     *PriceChangeAlert `json:"alert"`
	Timestamp time.Time         `json:"timestamp"`
}
