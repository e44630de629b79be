package entities

import (
	"time"
)

// Procedure is the canonical identity for a medical treatment or device
// treatment. Rows are created by curation or candidate promotion and are
// deprecated (is_active=false) rather than deleted.
type Procedure struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	KoreanName         string    `json:"korean_name" db:"korean_name"`
	NormalizedName     string    `json:"normalized_name" db:"normalized_name"`
	Category           string    `json:"category" db:"category"`
	Manufacturer       string    `json:"manufacturer" db:"manufacturer"`
	EquipmentType      string    `json:"equipment_type" db:"equipment_type"`
	IsVerified         bool      `json:"is_verified" db:"is_verified"`
	VerificationSource string    `json:"verification_source" db:"verification_source"`
	PriceCount         int       `json:"price_count" db:"price_count"`
	AvgPrice           float64   `json:"avg_price" db:"avg_price"`
	MinPrice           float64   `json:"min_price" db:"min_price"`
	MaxPrice           float64   `json:"max_price" db:"max_price"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// ProcedureAlias maps a recognized surface name to a Procedure with a
// confidence score between 0 and 100.
type ProcedureAlias struct {
	ID             string    `json:"id" db:"id"`
	ProcedureID    string    `json:"procedure_id" db:"procedure_id"`
	AliasName      string    `json:"alias_name" db:"alias_name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	Confidence     int       `json:"confidence" db:"confidence"`
	Source         string    `json:"source" db:"source"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ProcedurePackage is a named bundle of procedures sold as a combo treatment.
// Packages resolve in their own id namespace (see ResolvedID).
type ProcedurePackage struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	ProcedureIDs   []string  `json:"procedure_ids" db:"procedure_ids"`
	Category       string    `json:"category" db:"category"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
