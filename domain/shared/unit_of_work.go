package shared

import (
	"context"
	"io"
)

// UnitOfWork 管理事务边界。
// Execute commits when fn returns nil and rolls back everything fn wrote otherwise.
// Repositories called with the ctx handed to fn join the open transaction.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxRepository persists events whose synchronous delivery failed.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}

// BlobStore is the course media gateway.
// Delete is idempotent: deleting a missing name returns nil.
type BlobStore interface {
	Delete(ctx context.Context, name string) error
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// EventPublisher sends one serialized event to the external stream.
// There is no retry and no ordering guarantee beyond a single call.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}
