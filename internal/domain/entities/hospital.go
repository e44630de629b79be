package entities

import (
	"time"
)

// Hospital is a crawled clinic or hospital. Rows are created on first sighting
// of an unknown domain or name; near-duplicate names are never merged
// automatically.
type Hospital struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Domain    string    `json:"domain" db:"domain"`
	Region    string    `json:"region" db:"region"` // empty when inference found no match
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
