package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
)

// Router turns vendor events into per-identifier messages and moves messages between stages
//
//go:generate mockgen -source=router.go -destination=../mocks/router.go -package=mocks -mock_names=Router=MockRouter
type Router interface {
	// Dispatch publishes one message per identifier of event and returns how many were published.
	// INSERT and UPDATE go to image validation, DELETE goes to deletion.
	Dispatch(ctx context.Context, event domain.VendorEvent, useSearchCache bool) (int, error)

	// Forward publishes msg, as produced by stage, on topic
	Forward(ctx context.Context, stage string, topic messaging.Topic, msg domain.ProcessMessage) error
}

type router struct {
	publisher messaging.Publisher
}

// NewRouter creates a router publishing through publisher
func NewRouter(publisher messaging.Publisher) Router {
	return &router{publisher: publisher}
}

// TopicFor returns the entry topic of an operation
func TopicFor(op domain.Operation) (messaging.Topic, error) {
	switch op {
	case domain.OperationInsert, domain.OperationUpdate:
		return messaging.TopicImageValidation, nil
	case domain.OperationDelete:
		return messaging.TopicDeletion, nil
	default:
		return "", fmt.Errorf("%w: operation %q", domain.ErrInvalidMessage, op)
	}
}

func (r *router) Dispatch(ctx context.Context, event domain.VendorEvent, useSearchCache bool) (int, error) {
	if !event.Valid() {
		return 0, fmt.Errorf("%w: cannot route vendor event %+v", domain.ErrInvalidMessage, event)
	}

	topic, err := TopicFor(event.Operation)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, msg := range event.Messages(useSearchCache) {
		if err := r.publisher.Publish(ctx, topic, msg.DedupID(domain.StageReconcile), msg); err != nil {
			return published, fmt.Errorf("failed to dispatch %s: %w", msg.SourceKey(), err)
		}
		published++
	}

	logger.DebugCtx(ctx, "Vendor event dispatched",
		zap.String("operation", string(event.Operation)),
		zap.String("identifier_type", string(event.IdentifierType)),
		zap.Int64("vendor", event.VendorID),
		zap.String("topic", topic.String()),
		zap.Int("messages", published))

	return published, nil
}

func (r *router) Forward(ctx context.Context, stage string, topic messaging.Topic, msg domain.ProcessMessage) error {
	if err := r.publisher.Publish(ctx, topic, msg.DedupID(stage), msg); err != nil {
		return fmt.Errorf("failed to forward %s to %s: %w", msg.SourceKey(), topic, err)
	}

	logger.DebugCtx(ctx, "Message forwarded", append(logger.MessageFields(msg), zap.String("topic", topic.String()))...)
	return nil
}
