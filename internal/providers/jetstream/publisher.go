package jetstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
)

type publisher struct {
	nc adapter.NatsConn
	js adapter.JetStream
}

// NewPublisher connects to NATS, makes sure the stream exists and returns a publisher
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream) (messaging.Publisher, error) {
	nc, js, err := connect(cfg, natsJS)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, err
	}

	return &publisher{nc: nc, js: js}, nil
}

// Publish marshals payload and publishes it, retrying briefly on broker errors.
// Without a dedup id a ULID is used so retries of this call are still collapsed.
func (p *publisher) Publish(ctx context.Context, topic messaging.Topic, dedupID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if dedupID == "" {
		dedupID = ulid.Make().String()
	}

	logger.DebugCtx(ctx, "Publishing message",
		zap.String("subject", topic.String()),
		zap.String("msg_id", dedupID))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	err = backoff.Retry(func() error {
		_, err := p.js.Publish(ctx, topic.String(), data, jetstream.WithMsgID(dedupID))
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}
