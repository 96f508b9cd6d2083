package processor

import (
	"context"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/probe"
	"github.com/bibcovers/cover-indexer/internal/router"
	"github.com/bibcovers/cover-indexer/internal/store"
)

// Validator confirms the vendor still serves the Source's original file and
// forwards new or changed files to the cover publisher
type Validator struct {
	store  store.Store
	prober probe.Prober
	router router.Router
}

// NewValidator creates the image validation stage
func NewValidator(st store.Store, prober probe.Prober, r router.Router) *Validator {
	return &Validator{store: st, prober: prober, router: r}
}

func (v *Validator) Name() string { return domain.StageValidate }

func (v *Validator) Topic() messaging.Topic { return messaging.TopicImageValidation }

// Handle probes the original file.
// A present file whose fingerprint differs from the stored one is forwarded,
// an unchanged one is rejected, and an absent one clears the Source pointer.
// The fingerprint is stored after forwarding so a failed forward is retried on redelivery.
func (v *Validator) Handle(ctx context.Context, data []byte) domain.Outcome {
	msg, ok := decode(ctx, v.Name(), data)
	if !ok {
		return domain.OutcomeReject
	}
	ctx = logger.WithStage(ctx, v.Name(), msg)

	if msg.Operation == domain.OperationDelete {
		return settle(ctx, v.Name(), msg, domain.OutcomeReject, "delete operation on validation topic", nil)
	}

	source, err := v.store.GetSource(ctx, msg.SourceKey())
	if err != nil {
		return settle(ctx, v.Name(), msg, domain.OutcomeRequeue, "failed to load source", err)
	}
	if source == nil {
		return settle(ctx, v.Name(), msg, domain.OutcomeReject, "source not found", nil)
	}
	if source.OriginalFile == nil || *source.OriginalFile == "" {
		return settle(ctx, v.Name(), msg, domain.OutcomeReject, "source has no original file", nil)
	}

	result := v.prober.Probe(ctx, *source.OriginalFile)
	switch result.Status {
	case probe.StatusTransient:
		return settle(ctx, v.Name(), msg, domain.OutcomeRequeue, "probe failed", result.Err)

	case probe.StatusPresent:
		if result.ContentLength > 0 {
			break
		}
		fallthrough

	default:
		logger.InfoCtx(ctx, "Original file not available",
			append(logger.MessageFields(msg),
				zap.String("url", *source.OriginalFile),
				zap.Int("status", result.StatusCode),
				zap.Int64("content_length", result.ContentLength))...)

		if err := v.store.ClearSourceOriginal(ctx, source.ID); err != nil {
			return settle(ctx, v.Name(), msg, domain.OutcomeRequeue, "failed to clear source original", err)
		}
		return settle(ctx, v.Name(), msg, domain.OutcomeReject, "not found", nil)
	}

	fingerprint := store.Fingerprint{
		ContentLength: result.ContentLength,
		LastModified:  result.LastModified,
	}
	if fingerprint.Equal(source) {
		return settle(ctx, v.Name(), msg, domain.OutcomeReject, "unchanged", nil)
	}

	if err := v.router.Forward(ctx, v.Name(), messaging.TopicCoverPublish, msg); err != nil {
		return settle(ctx, v.Name(), msg, domain.OutcomeRequeue, "failed to forward", err)
	}

	if err := v.store.UpdateSourceFingerprint(ctx, source.ID, fingerprint); err != nil {
		return settle(ctx, v.Name(), msg, domain.OutcomeRequeue, "failed to store fingerprint", err)
	}

	reason := "validated"
	if msg.Operation == domain.OperationUpdate {
		reason = "updated"
	}
	return settle(ctx, v.Name(), msg, domain.OutcomeAck, reason, nil)
}
