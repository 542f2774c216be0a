package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"

	"edusync/domain/shared"
)

// PublishedEvent one recorded Publish call
type PublishedEvent struct {
	EventType string
	Payload   []byte
}

// RecordingPublisher records every Publish call. Err, when set, is returned
// from every call; OnPublish runs before the call is recorded.
type RecordingPublisher struct {
	mu        sync.Mutex
	events    []PublishedEvent
	Err       error
	OnPublish func(ctx context.Context, eventType string)
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	if p.OnPublish != nil {
		p.OnPublish(ctx, eventType)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{EventType: eventType, Payload: bytes.Clone(payload)})
	return p.Err
}

// Events returns a copy of the recorded calls, failed ones included.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

var _ shared.EventPublisher = (*RecordingPublisher)(nil)

// RecordingBlobStore records Delete and Upload calls.
type RecordingBlobStore struct {
	mu        sync.Mutex
	deleted   []string
	uploaded  map[string][]byte
	DeleteErr error
	UploadErr error
	BaseURL   string
}

func NewRecordingBlobStore() *RecordingBlobStore {
	return &RecordingBlobStore{uploaded: map[string][]byte{}, BaseURL: "https://blobs.test/media/"}
}

func (b *RecordingBlobStore) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, name)
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.uploaded, name)
	return nil
}

func (b *RecordingBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.UploadErr != nil {
		return "", b.UploadErr
	}
	b.uploaded[name] = data
	return b.BaseURL + name, nil
}

// Deleted lists names passed to Delete in call order.
func (b *RecordingBlobStore) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.deleted))
	copy(out, b.deleted)
	return out
}

// Uploaded returns the stored bytes of name.
func (b *RecordingBlobStore) Uploaded(name string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.uploaded[name]
	return data, ok
}

var _ shared.BlobStore = (*RecordingBlobStore)(nil)

// MemoryOutbox in-memory shared.OutboxRepository. OnSave sees the context
// of every SaveEvent call.
type MemoryOutbox struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	Err    error
	OnSave func(ctx context.Context)
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (o *MemoryOutbox) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if o.OnSave != nil {
		o.OnSave(ctx)
	}
	if err := shared.ValidateEvent(event); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.events = append(o.events, event)
	return nil
}

func (o *MemoryOutbox) Events() []shared.DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]shared.DomainEvent, len(o.events))
	copy(out, o.events)
	return out
}

var _ shared.OutboxRepository = (*MemoryOutbox)(nil)
