package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

var aliasColumns = []interface{}{
	"id", "procedure_id", "alias_name", "normalized_name", "confidence", "source", "created_at",
}

// AliasAdapter implements ProcedureAliasRepository
type AliasAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAliasAdapter creates a new alias adapter
func NewAliasAdapter(client *postgres.Client) repositories.ProcedureAliasRepository {
	return &AliasAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new alias
func (a *AliasAdapter) Create(ctx context.Context, alias *entities.ProcedureAlias) error {
	record := goqu.Record{
		"id":              alias.ID,
		"procedure_id":    alias.ProcedureID,
		"alias_name":      alias.AliasName,
		"normalized_name": alias.NormalizedName,
		"confidence":      alias.Confidence,
		"source":          sql.NullString{String: alias.Source, Valid: alias.Source != ""},
		"created_at":      alias.CreatedAt,
	}

	query, args, err := a.db.Insert("procedure_aliases").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create alias", err)
	}

	return nil
}

// FindBestMatch returns the highest-confidence alias whose surface or
// normalized name matches
func (a *AliasAdapter) FindBestMatch(ctx context.Context, rawName, normalizedName string) (*entities.ProcedureAlias, error) {
	query, args, err := a.db.Select(aliasColumns...).
		From("procedure_aliases").
		Where(goqu.Or(
			goqu.C("alias_name").Eq(rawName),
			goqu.C("normalized_name").Eq(normalizedName),
		)).
		Order(goqu.C("confidence").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	alias, err := scanAlias(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no alias matching %q", rawName))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find alias", err)
	}

	return alias, nil
}

// FindByProcedure lists aliases for a procedure
func (a *AliasAdapter) FindByProcedure(ctx context.Context, procedureID string) ([]*entities.ProcedureAlias, error) {
	query, args, err := a.db.Select(aliasColumns...).
		From("procedure_aliases").
		Where(goqu.Ex{"procedure_id": procedureID}).
		Order(goqu.C("confidence").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list aliases", err)
	}
	defer rows.Close()

	var aliases []*entities.ProcedureAlias
	for rows.Next() {
		alias, err := scanAlias(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan alias", err)
		}
		aliases = append(aliases, alias)
	}

	return aliases, nil
}

func scanAlias(row rowScanner) (*entities.ProcedureAlias, error) {
	alias := &entities.ProcedureAlias{}
	var source sql.NullString

	err := row.Scan(
		&alias.ID,
		&alias.ProcedureID,
		&alias.AliasName,
		&alias.NormalizedName,
		&alias.Confidence,
		&source,
		&alias.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	alias.Source = source.String
	return alias, nil
}
