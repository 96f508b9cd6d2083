package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// DuplicateWindow is how long the stream remembers message ids
	DuplicateWindow time.Duration
}

func connect(cfg Config, natsJS adapter.NatsJetStream) (adapter.NatsConn, adapter.JetStream, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}
	return nc, js, nil
}

// ensureStream creates the work-queue stream over every pipeline topic, or updates it in place
func ensureStream(ctx context.Context, js adapter.JetStream, cfg Config) error {
	subjects := make([]string, 0, len(messaging.AllTopics()))
	for _, topic := range messaging.AllTopics() {
		subjects = append(subjects, topic.String())
	}

	err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   subjects,
		Retention:  jetstream.WorkQueuePolicy,
		Storage:    jetstream.FileStorage,
		Duplicates: cfg.DuplicateWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}
	return nil
}
