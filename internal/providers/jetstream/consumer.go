package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
)

// ConsumerConfig holds the durable consumer settings of one stage
type ConsumerConfig struct {
	Config
	ConsumerName string
	AckWait      time.Duration
	MaxDeliver   int
}

// OutcomeObserver is notified of every settled delivery
type OutcomeObserver func(topic messaging.Topic, outcome domain.Outcome)

type consumer struct {
	nc       adapter.NatsConn
	js       adapter.JetStream
	config   ConsumerConfig
	observer OutcomeObserver
}

// NewConsumer connects to NATS and returns a stage consumer. observer may be nil.
func NewConsumer(ctx context.Context, cfg ConsumerConfig, natsJS adapter.NatsJetStream, observer OutcomeObserver) (messaging.Consumer, error) {
	nc, js, err := connect(cfg.Config, natsJS)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(ctx, js, cfg.Config); err != nil {
		nc.Close()
		return nil, err
	}

	return &consumer{
		nc:       nc,
		js:       js,
		config:   cfg,
		observer: observer,
	}, nil
}

// Run consumes topic until ctx is cancelled. Messages are handled one at a time;
// throughput comes from running more instances against the same durable consumer.
func (c *consumer) Run(ctx context.Context, topic messaging.Topic, handler messaging.Handler) error {
	logger.InfoCtx(ctx, "Starting consumer",
		zap.String("stream", c.config.StreamName),
		zap.String("consumer", c.config.ConsumerName),
		zap.String("subject", topic.String()))

	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.config.StreamName, jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       c.config.AckWait,
		MaxDeliver:    c.config.MaxDeliver,
		FilterSubject: topic.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	msgChan := make(chan adapter.Message, 1)
	sub, err := cons.Consume(func(msg adapter.Message) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	}, jetstream.PullMaxMessages(1))
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down consumer", zap.String("subject", topic.String()))
			return ctx.Err()
		case msg := <-msgChan:
			c.handleMessage(ctx, topic, msg, handler)
		}
	}
}

// handleMessage runs the handler and settles the delivery: ack, requeue (nak) or reject (term)
func (c *consumer) handleMessage(ctx context.Context, topic messaging.Topic, msg adapter.Message, handler messaging.Handler) {
	fields := []zap.Field{zap.String("subject", topic.String())}
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		fields = append(fields,
			zap.Uint64("stream_seq", metadata.Sequence.Stream),
			zap.Uint64("delivery_count", metadata.NumDelivered))
	}

	stop := c.keepAlive(ctx, msg, fields)
	outcome := handler.Handle(ctx, msg.Data())
	stop()

	var err error
	switch outcome {
	case domain.OutcomeAck:
		err = msg.Ack()
	case domain.OutcomeRequeue:
		err = msg.Nak()
	default:
		outcome = domain.OutcomeReject
		err = msg.Term()
	}
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to settle message as %s: %w", outcome, err), fields...)
	}

	logger.DebugCtx(ctx, "Message settled", append(fields, zap.Stringer("outcome", outcome))...)

	if c.observer != nil {
		c.observer(topic, outcome)
	}
}

// keepAlive marks msg in progress every half AckWait until the returned stop func is called.
// stop returns once no further InProgress call can happen.
func (c *consumer) keepAlive(ctx context.Context, msg adapter.Message, fields []zap.Field) func() {
	interval := c.config.AckWait / 2
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					logger.WarnCtx(ctx, "Failed to extend ack deadline", append(fields[:len(fields):len(fields)], zap.Error(err))...)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// Close closes the NATS connection
func (c *consumer) Close() {
	if c.nc == nil {
		return
	}

	c.nc.Close()
}
