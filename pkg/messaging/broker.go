package messaging

import (
	"context"
	"time"
)

// Channel and event types for catalog notices.
const (
	CatalogChannel        = "content.catalog"
	EventCatalogPublished = "content.catalog.published"
	EventCatalogReloaded  = "content.catalog.reloaded"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

type Message struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func NewMessage(eventType string, payload interface{}) Message {
	return Message{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
