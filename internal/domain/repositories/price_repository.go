package repositories

import (
	"context"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// PriceHistoryRepository defines the append-only price ledger
type PriceHistoryRepository interface {
	// Insert appends one history row; rows are never updated
	Insert(ctx context.Context, row *entities.PriceHistory) error

	// GetLatest returns the most recent history row for the exact
	// (hospital, procedure, area) key
	GetLatest(ctx context.Context, hospitalID, procedureID, targetAreaCode string) (*entities.PriceHistory, error)

	// ListByKey returns history rows for a key, newest first
	ListByKey(ctx context.Context, hospitalID, procedureID, targetAreaCode string, limit int) ([]*entities.PriceHistory, error)
}

// PriceRecordRepository defines the latest-snapshot price table
type PriceRecordRepository interface {
	// Upsert writes the latest snapshot for a key
	Upsert(ctx context.Context, record *entities.PriceRecord) error

	// Get returns the snapshot for a key
	Get(ctx context.Context, hospitalID, procedureID, targetAreaCode string) (*entities.PriceRecord, error)
}
