package service

import (
	"context"
)

// CardRequestedEvent is published once a card row has been committed in pending state.
type CardRequestedEvent struct {
	RequestID      string `json:"request_id,omitempty"` // For distributed tracing
	CardID         string `json:"card_id"`
	MemberID       string `json:"member_id"`
	PlanPurchaseID string `json:"plan_purchase_id"`
	CardUniqueID   string `json:"card_unique_id"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishCardRequested publishes a card request for async generation
	PublishCardRequested(ctx context.Context, event *CardRequestedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
