package database

import (
	"context"
	"encoding/json"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
	"github.com/medisight/clinicpricewatch/internal/domain/providers"
	"github.com/medisight/clinicpricewatch/internal/domain/repositories"
	"github.com/medisight/clinicpricewatch/internal/infrastructure/observability"
)

const settingsCacheTTLSeconds = 300

const (
	approvalSettingsCacheKey = "settings:mapping_approval"
	watchSettingsCacheKey    = "settings:price_watch"
)

// CachedSettingsAdapter wraps a SettingsRepository with a read-through cache
// for the two global settings rows, which are read on every ingestion call.
// Competitor lookups pass through: subscriber sets must reflect admin edits
// immediately.
type CachedSettingsAdapter struct {
	inner repositories.SettingsRepository
	cache providers.CacheProvider
}

// NewCachedSettingsAdapter creates a new cached settings adapter
func NewCachedSettingsAdapter(inner repositories.SettingsRepository, cache providers.CacheProvider) repositories.SettingsRepository {
	return &CachedSettingsAdapter{
		inner: inner,
		cache: cache,
	}
}

// GetMappingApprovalSettings returns candidate-approval thresholds
func (a *CachedSettingsAdapter) GetMappingApprovalSettings(ctx context.Context) (*entities.MappingApprovalSettings, error) {
	if a.cache != nil {
		if data, err := a.cache.Get(ctx, approvalSettingsCacheKey); err == nil {
			settings := &entities.MappingApprovalSettings{}
			if err := json.Unmarshal(data, settings); err == nil {
				return settings, nil
			}
		}
	}

	settings, err := a.inner.GetMappingApprovalSettings(ctx)
	if err != nil {
		return nil, err
	}

	a.store(ctx, approvalSettingsCacheKey, settings)
	return settings, nil
}

// GetPriceWatchSettings returns alert significance thresholds
func (a *CachedSettingsAdapter) GetPriceWatchSettings(ctx context.Context) (*entities.PriceWatchSettings, error) {
	if a.cache != nil {
		if data, err := a.cache.Get(ctx, watchSettingsCacheKey); err == nil {
			settings := &entities.PriceWatchSettings{}
			if err := json.Unmarshal(data, settings); err == nil {
				return settings, nil
			}
		}
	}

	settings, err := a.inner.GetPriceWatchSettings(ctx)
	if err != nil {
		return nil, err
	}

	a.store(ctx, watchSettingsCacheKey, settings)
	return settings, nil
}

// GetCompetitorSettings passes through to the underlying repository
func (a *CachedSettingsAdapter) GetCompetitorSettings(ctx context.Context, hospitalID string) (*entities.CompetitorSettings, error) {
	return a.inner.GetCompetitorSettings(ctx, hospitalID)
}

// ListSubscribers passes through to the underlying repository
func (a *CachedSettingsAdapter) ListSubscribers(ctx context.Context, competitorHospitalID string) ([]string, error) {
	return a.inner.ListSubscribers(ctx, competitorHospitalID)
}

func (a *CachedSettingsAdapter) store(ctx context.Context, key string, value interface{}) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, settingsCacheTTLSeconds); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Str("key", key).Msg("settings cache write failed")
	}
}
