package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/clients/postgres"
	apperrors "github.com/medisight/clinicpricewatch/pkg/errors"
)

var alertColumns = []interface{}{
	"id", "subscriber_hospital_id", "competitor_hospital_id", "procedure_id",
	"target_area_code", "old_price", "new_price", "price_change",
	"price_change_percent", "subscriber_price", "price_gap", "price_gap_percent",
	"alert_type", "severity", "is_read", "created_at",
}

// AlertAdapter implements PriceChangeAlertRepository
type AlertAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAlertAdapter creates a new alert adapter
func NewAlertAdapter(client *postgres.Client) repositories.PriceChangeAlertRepository {
	return &AlertAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Insert writes one alert row
func (a *AlertAdapter) Insert(ctx context.Context, alert *entities.PriceChangeAlert) error {
	record := goqu.Record{
		"id":                     alert.ID,
		"subscriber_hospital_id": alert.SubscriberHospitalID,
		"competitor_hospital_id": alert.CompetitorHospitalID,
		"procedure_id":           alert.ProcedureID,
		"target_area_code":       alert.TargetAreaCode,
		"old_price":              alert.OldPrice,
		"new_price":              alert.NewPrice,
		"price_change":           alert.PriceChange,
		"price_change_percent":   alert.PriceChangePercent,
		"subscriber_price":       nullFloat(alert.SubscriberPrice),
		"price_gap":              nullFloat(alert.PriceGap),
		"price_gap_percent":      nullFloat(alert.PriceGapPercent),
		"alert_type":             string(alert.AlertType),
		"severity":               string(alert.Severity),
		"is_read":                alert.IsRead,
		"created_at":             alert.CreatedAt,
	}

	query, args, err := a.db.Insert("price_change_alerts").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to insert alert", err)
	}

	return nil
}

// ListBySubscriber lists alerts for a subscriber hospital, newest first
func (a *AlertAdapter) ListBySubscriber(ctx context.Context, hospitalID string, unreadOnly bool, limit, offset int) ([]*entities.PriceChangeAlert, error) {
	ds := a.db.Select(alertColumns...).
		From("price_change_alerts").
		Where(goqu.Ex{"subscriber_hospital_id": hospitalID}).
		Order(goqu.C("created_at").Desc())

	if unreadOnly {
		ds = ds.Where(goqu.C("is_read").IsFalse())
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list alerts", err)
	}
	defer rows.Close()

	var alerts []*entities.PriceChangeAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan alert", err)
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// MarkRead flips the read flag
func (a *AlertAdapter) MarkRead(ctx context.Context, id string) error {
	query, args, err := a.db.Update("price_change_alerts").
		Set(goqu.Record{"is_read": true}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to mark alert read", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("alert with id %s not found", id))
	}

	return nil
}

func scanAlert(row rowScanner) (*entities.PriceChangeAlert, error) {
	alert := &entities.PriceChangeAlert{}
	var subscriberPrice, priceGap, priceGapPercent sql.NullFloat64
	var alertType, severity string
	var createdAt time.Time

	err := row.Scan(
		&alert.ID,
		&alert.SubscriberHospitalID,
		&alert.CompetitorHospitalID,
		&alert.ProcedureID,
		&alert.TargetAreaCode,
		&alert.OldPrice,
		&alert.NewPrice,
		&alert.PriceChange,
		&alert.PriceChangePercent,
		&subscriberPrice,
		&priceGap,
		&priceGapPercent,
		&alertType,
		&severity,
		&alert.IsRead,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if subscriberPrice.Valid {
		alert.SubscriberPrice = &subscriberPrice.Float64
	}
	if priceGap.Valid {
		alert.PriceGap = &priceGap.Float64
	}
	if priceGapPercent.Valid {
		alert.PriceGapPercent = &priceGapPercent.Float64
	}
	alert.AlertType = entities.AlertType(alertType)
	alert.Severity = entities.AlertSeverity(severity)
	alert.CreatedAt = createdAt

	return alert, nil
}
