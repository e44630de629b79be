package repositories

import (
	"context"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// HospitalRepository defines the interface for hospital data operations
type HospitalRepository interface {
	// Create creates a new hospital
	Create(ctx context.Context, hospital *entities.Hospital) error

	// GetByID retrieves a hospital by ID
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)

	// GetByDomain retrieves a hospital by exact domain match
	GetByDomain(ctx context.Context, domain string) (*entities.Hospital, error)

	// GetByName retrieves a hospital by exact name match
	GetByName(ctx context.Context, name string) (*entities.Hospital, error)
}
