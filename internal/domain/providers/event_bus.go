package providers

import (
	"context"

	"github.com/medisight/clinicpricewatch/internal/domain/entities"
)

// EventChannelPriceAlerts is the pub/sub channel alert events are broadcast on.
const EventChannelPriceAlerts = "price_alerts"

// EventBus defines the interface for broadcasting alert events
type EventBus interface {
	// Publish publishes an event to all subscribers of a channel
	Publish(ctx context.Context, channel string, event *entities.AlertEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AlertEvent, error)

	// Close shuts down the bus and all subscriptions
	Close() error
}
