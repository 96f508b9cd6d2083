package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/nohit"
)

// SearchMiss feeds identifiers the public search could not resolve into the no-hit cache
type SearchMiss struct {
	noHits nohit.Reporter
}

// NewSearchMiss creates the search-miss intake stage
func NewSearchMiss(noHits nohit.Reporter) *SearchMiss {
	return &SearchMiss{noHits: noHits}
}

func (s *SearchMiss) Name() string { return domain.StageSearchMiss }

func (s *SearchMiss) Topic() messaging.Topic { return messaging.TopicSearchMiss }

// Handle accepts a JSON list of no-hit items. A partial publish failure requeues the
// batch; items already published are cached and skipped on redelivery.
func (s *SearchMiss) Handle(ctx context.Context, data []byte) domain.Outcome {
	var items []domain.NoHitItem
	if err := json.Unmarshal(data, &items); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to decode search misses: %w", err),
			zap.String("stage", s.Name()),
			zap.ByteString("payload", truncate(data)))
		return domain.OutcomeReject
	}

	valid := items[:0]
	for _, item := range items {
		if !domain.IsValidIdentifierType(item.IdentifierType) || item.Identifier == "" {
			logger.WarnCtx(ctx, "Dropping invalid search miss",
				zap.String("identifier", item.Identifier),
				zap.String("identifier_type", string(item.IdentifierType)))
			continue
		}
		item.Identifier = domain.NormalizeIdentifier(item.IdentifierType, item.Identifier)
		valid = append(valid, item)
	}

	published, err := s.noHits.Report(ctx, valid)
	if err != nil {
		logger.WarnCtx(ctx, "Search misses requeued",
			zap.Int("items", len(valid)),
			zap.Int("published", published),
			zap.Error(err))
		return domain.OutcomeRequeue
	}

	logger.InfoCtx(ctx, "Search misses reported",
		zap.Int("received", len(items)),
		zap.Int("published", published))

	return domain.OutcomeAck
}
