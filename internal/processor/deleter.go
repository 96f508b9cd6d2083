package processor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/coverstore"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/store"
)

// Deleter removes a Source with its Image and search row, then removes the cover from the cover store
type Deleter struct {
	store  store.Store
	covers coverstore.Provider
}

// NewDeleter creates the deletion stage
func NewDeleter(st store.Store, covers coverstore.Provider) *Deleter {
	return &Deleter{store: st, covers: covers}
}

func (d *Deleter) Name() string { return domain.StageDelete }

func (d *Deleter) Topic() messaging.Topic { return messaging.TopicDeletion }

// Handle deletes the rows in one transaction, then removes the cover. Database failures
// and cover store failures are both rejected; rows deleted before a cover store failure
// stay deleted. A redelivery that finds the source gone still removes a cover whose
// removal never completed.
func (d *Deleter) Handle(ctx context.Context, data []byte) domain.Outcome {
	msg, ok := decode(ctx, d.Name(), data)
	if !ok {
		return domain.OutcomeReject
	}
	ctx = logger.WithStage(ctx, d.Name(), msg)

	if msg.Operation != domain.OperationDelete {
		return settle(ctx, d.Name(), msg, domain.OutcomeReject, "non delete operation on deletion topic", nil)
	}

	key := msg.SourceKey()
	image, found, err := d.store.DeleteSource(ctx, key)
	if err != nil {
		return settle(ctx, d.Name(), msg, domain.OutcomeReject, "delete transaction failed", err)
	}

	var assetID string
	if found {
		if image != nil && image.ProviderAssetID != nil {
			assetID = *image.ProviderAssetID
		}
	} else {
		assetID, err = d.store.GetPendingRemoval(ctx, key)
		if err != nil {
			return settle(ctx, d.Name(), msg, domain.OutcomeRequeue, "failed to read pending cover removal", err)
		}
		if assetID == "" {
			logger.InfoCtx(ctx, "Source already deleted", logger.MessageFields(msg)...)
			return settle(ctx, d.Name(), msg, domain.OutcomeAck, "already deleted", nil)
		}
		logger.InfoCtx(ctx, "Source already deleted, retrying cover removal",
			append(logger.MessageFields(msg), zap.String("asset_id", assetID))...)
	}

	if assetID == "" {
		return settle(ctx, d.Name(), msg, domain.OutcomeAck, "deleted", nil)
	}

	return d.removeCover(ctx, msg, assetID)
}

// removeCover removes the asset and forgets the pending removal once the cover store no longer has it
func (d *Deleter) removeCover(ctx context.Context, msg domain.ProcessMessage, assetID string) domain.Outcome {
	if err := d.covers.Remove(ctx, assetID); err != nil {
		if !errors.Is(err, coverstore.ErrNotFound) {
			return settle(ctx, d.Name(), msg, domain.OutcomeReject, "failed to remove cover "+assetID, err)
		}
		logger.InfoCtx(ctx, "Cover already removed from cover store",
			append(logger.MessageFields(msg), zap.String("asset_id", assetID))...)
	}

	if err := d.store.ClearPendingRemoval(ctx, msg.SourceKey()); err != nil {
		logger.WarnCtx(ctx, "Failed to clear pending cover removal",
			append(logger.MessageFields(msg), zap.String("asset_id", assetID), zap.Error(err))...)
	}

	return settle(ctx, d.Name(), msg, domain.OutcomeAck, "deleted", nil)
}
