package processor

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/nohit"
	"github.com/bibcovers/cover-indexer/internal/search"
	"github.com/bibcovers/cover-indexer/internal/store"
)

// Enricher attaches bibliographic material to a published cover and announces it to the index
type Enricher struct {
	store     store.Store
	search    search.Client
	noHits    nohit.Reporter
	publisher messaging.Publisher
}

// NewEnricher creates the metadata enrichment stage
func NewEnricher(st store.Store, searchClient search.Client, noHits nohit.Reporter, publisher messaging.Publisher) *Enricher {
	return &Enricher{store: st, search: searchClient, noHits: noHits, publisher: publisher}
}

func (e *Enricher) Name() string { return domain.StageEnrich }

func (e *Enricher) Topic() messaging.Topic { return messaging.TopicMetadataEnrich }

func (e *Enricher) Handle(ctx context.Context, data []byte) domain.Outcome {
	msg, ok := decode(ctx, e.Name(), data)
	if !ok {
		return domain.OutcomeReject
	}
	ctx = logger.WithStage(ctx, e.Name(), msg)

	if msg.ImageID == 0 {
		return settle(ctx, e.Name(), msg, domain.OutcomeReject, "message has no image", domain.ErrMissingImageID)
	}

	source, err := e.store.GetSource(ctx, msg.SourceKey())
	if err != nil {
		return settle(ctx, e.Name(), msg, domain.OutcomeRequeue, "failed to load source", err)
	}
	if source == nil {
		return settle(ctx, e.Name(), msg, domain.OutcomeReject, "source not found", nil)
	}
	if source.Image == nil || source.Image.ID != msg.ImageID {
		return settle(ctx, e.Name(), msg, domain.OutcomeReject, "image no longer linked to source", nil)
	}

	material, outcome, reason, err := e.material(ctx, msg, source.ID)
	if material == nil {
		return settle(ctx, e.Name(), msg, outcome, reason, err)
	}

	image := source.Image
	imageURL := ""
	if image.ImageURL != nil {
		imageURL = *image.ImageURL
	}

	err = e.store.UpsertSearch(ctx, store.UpsertSearchInput{
		SourceID:       source.ID,
		Identifier:     msg.Identifier,
		IdentifierType: msg.IdentifierType,
		ImageURL:       imageURL,
		ImageFormat:    image.Format,
		Width:          image.Width,
		Height:         image.Height,
		Material:       material,
	})
	if err != nil {
		return settle(ctx, e.Name(), msg, domain.OutcomeRequeue, "failed to store search row", err)
	}

	event := domain.IndexReadyEvent{
		Identifier:     msg.Identifier,
		IdentifierType: msg.IdentifierType,
		Operation:      msg.Operation,
		VendorID:       msg.VendorID,
		ImageID:        image.ID,
		Material:       json.RawMessage(material),
	}
	if err := e.publisher.Publish(ctx, messaging.TopicIndexReady, msg.DedupID(e.Name()), event); err != nil {
		return settle(ctx, e.Name(), msg, domain.OutcomeRequeue, "failed to publish index-ready", err)
	}

	return settle(ctx, e.Name(), msg, domain.OutcomeAck, "enriched", nil)
}

// material returns the stored material when the message allows the search cache,
// otherwise queries the search service. A nil result comes with the outcome to settle with.
func (e *Enricher) material(ctx context.Context, msg domain.ProcessMessage, sourceID int64) (datatypes.JSON, domain.Outcome, string, error) {
	if msg.UseSearchCache {
		cached, err := e.store.GetSearch(ctx, sourceID)
		if err != nil {
			return nil, domain.OutcomeRequeue, "failed to load search row", err
		}
		if cached != nil && len(cached.Material) > 0 {
			logger.DebugCtx(ctx, "Using cached material", logger.MessageFields(msg)...)
			return cached.Material, domain.OutcomeAck, "", nil
		}
	}

	found, err := e.search.Search(ctx, msg.Identifier, msg.IdentifierType)
	switch {
	case errors.Is(err, domain.ErrUnsupportedIdentifierType):
		return nil, domain.OutcomeReject, "identifier type cannot be searched", err
	case err != nil:
		return nil, domain.OutcomeRequeue, "search failed", err
	case found == nil:
		e.reportNoHit(ctx, msg)
		return nil, domain.OutcomeReject, "no search hits", nil
	}

	raw, err := json.Marshal(found)
	if err != nil {
		return nil, domain.OutcomeReject, "failed to encode material", err
	}
	return datatypes.JSON(raw), domain.OutcomeAck, "", nil
}

func (e *Enricher) reportNoHit(ctx context.Context, msg domain.ProcessMessage) {
	item := domain.NoHitItem{IdentifierType: msg.IdentifierType, Identifier: msg.Identifier}

	if _, err := e.noHits.Report(ctx, []domain.NoHitItem{item}); err != nil {
		logger.WarnCtx(ctx, "Failed to report no-hit", append(logger.MessageFields(msg), zap.Error(err))...)
	}
}
