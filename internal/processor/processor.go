package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
)

// Stage is a message handler bound to the topic it consumes
type Stage interface {
	messaging.Handler
	// Name is the stage name used in logs, metrics and dedup ids
	Name() string
	// Topic is the subject the stage consumes
	Topic() messaging.Topic
}

// decode unmarshals and validates an envelope; malformed payloads are rejected by the caller
func decode(ctx context.Context, stage string, data []byte) (domain.ProcessMessage, bool) {
	var msg domain.ProcessMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to decode message: %w", err),
			zap.String("stage", stage),
			zap.ByteString("payload", truncate(data)))
		return msg, false
	}

	if err := msg.Validate(); err != nil {
		logger.ErrorCtx(ctx, err, append(logger.MessageFields(msg), zap.String("stage", stage))...)
		return msg, false
	}

	return msg, true
}

// settle logs the outcome with the message context and returns it
func settle(ctx context.Context, stage string, msg domain.ProcessMessage, outcome domain.Outcome, reason string, err error) domain.Outcome {
	fields := append(logger.MessageFields(msg),
		zap.String("stage", stage),
		zap.Stringer("outcome", outcome),
		zap.String("reason", reason))

	switch {
	case err != nil && outcome == domain.OutcomeRequeue:
		logger.WarnCtx(ctx, "Message requeued", append(fields, zap.Error(err))...)
	case err != nil:
		logger.ErrorCtx(ctx, fmt.Errorf("%s: %w", reason, err), fields...)
	case outcome == domain.OutcomeAck:
		logger.InfoCtx(ctx, "Message processed", fields...)
	default:
		logger.InfoCtx(ctx, "Message settled", fields...)
	}

	return outcome
}

func truncate(data []byte) []byte {
	const limit = 512
	if len(data) > limit {
		return data[:limit]
	}
	return data
}
