package po

import (
	"encoding/json"
	"time"

	"edusync/domain/shared"

	"github.com/google/uuid"
)

// OutboxEventPO Outbox event persistence object
// Holds events whose post-commit delivery failed, for the redelivery worker.
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"`          // e.g. "ResultCreated"
	Payload     string    `gorm:"type:text;not null"`               // wire payload, published as-is
	Status      string    `gorm:"size:20;default:PENDING;not null"` // PENDING, PROCESSING, PUBLISHED, FAILED
	RetryCount  int       `gorm:"default:0;not null"`
	LastError   string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName Specify table name
func (OutboxEventPO) TableName() string {
	return "outbox_events"
}

// EventStatus Outbox event status enum
type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusPublished  EventStatus = "PUBLISHED"
	EventStatusFailed     EventStatus = "FAILED"
)

// wireEvent is implemented by events that own their serialization.
type wireEvent interface {
	Marshal() ([]byte, error)
}

// FromDomainEvent Convert domain event to outbox persistence object
func FromDomainEvent(event shared.DomainEvent) (*OutboxEventPO, error) {
	payload, err := serializeEvent(event)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &OutboxEventPO{
		ID:          uuid.New().String(),
		AggregateID: event.GetAggregateID(),
		EventType:   event.EventName(),
		Payload:     payload,
		Status:      string(EventStatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// serializeEvent stores the exact bytes the publisher would have sent.
func serializeEvent(event shared.DomainEvent) (string, error) {
	if w, ok := event.(wireEvent); ok {
		data, err := w.Marshal()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := json.Marshal(map[string]any{
		"event_name":   event.EventName(),
		"aggregate_id": event.GetAggregateID(),
		"occurred_on":  event.OccurredOn(),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
