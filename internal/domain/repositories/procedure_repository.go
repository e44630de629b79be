package repositories

import (
	"context"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// ProcedureRepository defines the interface for canonical procedure data
type ProcedureRepository interface {
	// Create creates a new procedure
	Create(ctx context.Context, procedure *entities.Procedure) error

	// GetByID retrieves a procedure by ID
	GetByID(ctx context.Context, id string) (*entities.Procedure, error)

	// GetByName retrieves a procedure whose stored name matches the raw or
	// normalized form
	GetByName(ctx context.Context, rawName, normalizedName string) (*entities.Procedure, error)

	// List retrieves procedures with filters
	List(ctx context.Context, filter ProcedureFilter) ([]*entities.Procedure, error)

	// UpdateStats folds one new price observation into the rolling
	// count/avg/min/max columns
	UpdateStats(ctx context.Context, id string, price float64) error
}

// ProcedureFilter defines filters for listing procedures
type ProcedureFilter struct {
	Category string
	IsActive *bool
	Limit    int
	Offset   int
}

// ProcedureAliasRepository defines the interface for surface-name aliases
type ProcedureAliasRepository interface {
	// Create creates a new alias
	Create(ctx context.Context, alias *entities.ProcedureAlias) error

	// FindBestMatch returns the highest-confidence alias whose surface or
	// normalized name matches
	FindBestMatch(ctx context.Context, rawName, normalizedName string) (*entities.ProcedureAlias, error)

	// FindByProcedure lists aliases for a procedure
	FindByProcedure(ctx context.Context, procedureID string) ([]*entities.ProcedureAlias, error)
}

// ProcedurePackageRepository defines the interface for combo-treatment packages
type ProcedurePackageRepository interface {
	// Create creates a new package
	Create(ctx context.Context, pkg *entities.ProcedurePackage) error

	// GetByName retrieves a package whose stored name matches the raw or
	// normalized form
	GetByName(ctx context.Context, rawName, normalizedName string) (*entities.ProcedurePackage, error)
}
