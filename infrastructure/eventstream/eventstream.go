/*
Package eventstream 成绩变更事件网关。

EventHubsPublisher 每次 Publish 发送一个只含一条事件的 batch，不做重试；
LogPublisher 只把事件写入日志，用于本地开发。
*/
package eventstream

import (
	"context"
	"fmt"

	appconfig "edusync/config"
	"edusync/domain/shared"
)

const (
	ProviderEventHubs = "eventhubs"
	ProviderLog       = "log"
)

// Publisher shared.EventPublisher that owns a connection.
type Publisher interface {
	shared.EventPublisher
	Close(ctx context.Context) error
}

// New builds the configured publisher.
func New(cfg appconfig.EventsConfig) (Publisher, error) {
	switch cfg.Provider {
	case ProviderEventHubs:
		p, err := NewEventHubsPublisher(cfg.ConnectionString, cfg.HubName)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderLog, "":
		return NewLogPublisher(), nil
	default:
		return nil, fmt.Errorf("unsupported events provider %q", cfg.Provider)
	}
}
