package eventstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
)

// EventTypeProperty application property carrying the event type, so
// consumers can route without decoding the body.
const EventTypeProperty = "event_type"

// EventHubsPublisher Azure Event Hubs producer
type EventHubsPublisher struct {
	producer *azeventhubs.ProducerClient
}

func NewEventHubsPublisher(connectionString, hubName string) (*EventHubsPublisher, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("event hubs connection string is required")
	}
	producer, err := azeventhubs.NewProducerClientFromConnectionString(connectionString, hubName, nil)
	if err != nil {
		return nil, fmt.Errorf("create event hubs producer: %w", err)
	}
	return &EventHubsPublisher{producer: producer}, nil
}

// Publish sends payload as a single-event batch.
func (p *EventHubsPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	batch, err := p.producer.NewEventDataBatch(ctx, nil)
	if err != nil {
		return fmt.Errorf("create event batch: %w", err)
	}

	err = batch.AddEventData(&azeventhubs.EventData{
		Body:        payload,
		ContentType: to.Ptr("application/json"),
		Properties:  map[string]any{EventTypeProperty: eventType},
	}, nil)
	if err != nil {
		if errors.Is(err, azeventhubs.ErrEventDataTooLarge) {
			return fmt.Errorf("event %s exceeds batch size (%d bytes)", eventType, len(payload))
		}
		return fmt.Errorf("add event data: %w", err)
	}

	if err := p.producer.SendEventDataBatch(ctx, batch, nil); err != nil {
		return fmt.Errorf("send event %s: %w", eventType, err)
	}
	return nil
}

func (p *EventHubsPublisher) Close(ctx context.Context) error {
	return p.producer.Close(ctx)
}

var _ Publisher = (*EventHubsPublisher)(nil)
