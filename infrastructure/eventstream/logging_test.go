package eventstream

import (
	"context"
	"testing"

	appconfig "edusync/config"
	"edusync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisherLogsEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := logger.Get()
	logger.Set(zap.New(core))
	defer logger.Set(prev)

	p := NewLogPublisher()
	err := p.Publish(context.Background(), "ResultDeleted", []byte(`{"event_type":"ResultDeleted","result_id":"r1"}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("Event published").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ResultDeleted", entries[0].ContextMap()["event_type"])
	assert.NoError(t, p.Close(context.Background()))
}

func TestLogPublisherCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewLogPublisher().Publish(ctx, "ResultCreated", []byte("{}")), context.Canceled)
}

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(appconfig.EventsConfig{Provider: ProviderLog})
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)

	_, err = New(appconfig.EventsConfig{Provider: ProviderEventHubs, HubName: "results"})
	assert.Error(t, err, "event hubs needs a connection string")

	_, err = New(appconfig.EventsConfig{Provider: "kafka"})
	assert.Error(t, err)
}
