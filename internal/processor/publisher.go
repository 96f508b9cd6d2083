package processor

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/bibcovers/cover-indexer/internal/coverstore"
	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/logger"
	"github.com/bibcovers/cover-indexer/internal/messaging"
	"github.com/bibcovers/cover-indexer/internal/router"
	"github.com/bibcovers/cover-indexer/internal/store"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

// Publisher uploads validated originals to the cover store and links the resulting Image
type Publisher struct {
	store  store.Store
	covers coverstore.Provider
	router router.Router
}

// NewPublisher creates the cover publishing stage
func NewPublisher(st store.Store, covers coverstore.Provider, r router.Router) *Publisher {
	return &Publisher{store: st, covers: covers, router: r}
}

func (p *Publisher) Name() string { return domain.StagePublish }

func (p *Publisher) Topic() messaging.Topic { return messaging.TopicCoverPublish }

// CoverKey is the cover store identifier of a vendor's cover for one identifier
func CoverKey(vendorName string, identifier string) string {
	return vendorName + "/" + identifier
}

func (p *Publisher) Handle(ctx context.Context, data []byte) domain.Outcome {
	msg, ok := decode(ctx, p.Name(), data)
	if !ok {
		return domain.OutcomeReject
	}
	ctx = logger.WithStage(ctx, p.Name(), msg)

	vendor, err := p.store.GetVendor(ctx, msg.VendorID)
	if err != nil {
		return settle(ctx, p.Name(), msg, domain.OutcomeRequeue, "failed to load vendor", err)
	}
	if vendor == nil {
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "vendor not found", domain.ErrVendorNotFound)
	}

	source, err := p.store.GetSource(ctx, msg.SourceKey())
	if err != nil {
		return settle(ctx, p.Name(), msg, domain.OutcomeRequeue, "failed to load source", err)
	}
	if source == nil {
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "source not found", nil)
	}
	if source.OriginalFile == nil || *source.OriginalFile == "" {
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "source has no original file", nil)
	}

	tags := map[string]string{
		"vendor":          vendor.Name,
		"vendor_id":       strconv.FormatInt(vendor.ID, 10),
		"identifier_type": string(msg.IdentifierType),
	}
	uploaded, err := p.covers.Upload(ctx, *source.OriginalFile, domain.CoverFolder, CoverKey(vendor.Name, msg.Identifier), tags)
	if err != nil {
		return p.uploadFailed(ctx, msg, source, err)
	}

	previous := source.Image
	if previous != nil && previous.AutoGenerated {
		p.removeAsset(ctx, msg, previous, "auto generated placeholder")
	}

	image, err := p.store.PublishImage(ctx, store.PublishImageInput{
		SourceID:        source.ID,
		ImageURL:        uploaded.URL,
		Width:           uploaded.Width,
		Height:          uploaded.Height,
		Size:            uploaded.Size,
		Format:          uploaded.Format,
		ProviderAssetID: uploaded.AssetID,
		AutoGenerated:   false,
	})
	if err != nil {
		p.removeAsset(ctx, msg, &schema.Image{ProviderAssetID: &uploaded.AssetID}, "orphaned upload")
		if errors.Is(err, domain.ErrSourceNotFound) {
			return settle(ctx, p.Name(), msg, domain.OutcomeReject, "source deleted during upload", nil)
		}
		return settle(ctx, p.Name(), msg, domain.OutcomeRequeue, "failed to store image", err)
	}

	if previous != nil && !previous.AutoGenerated && !sameAsset(previous, uploaded.AssetID) {
		p.removeAsset(ctx, msg, previous, "replaced cover")
	}

	if err := p.router.Forward(ctx, p.Name(), messaging.TopicMetadataEnrich, msg.WithImageID(image.ID)); err != nil {
		return settle(ctx, p.Name(), msg, domain.OutcomeRequeue, "failed to forward", err)
	}

	logger.InfoCtx(ctx, "Cover published",
		append(logger.MessageFields(msg.WithImageID(image.ID)),
			logger.Vendor(vendor.ID, vendor.Name),
			zap.String("url", uploaded.URL),
			zap.String("asset_id", uploaded.AssetID))...)

	return settle(ctx, p.Name(), msg, domain.OutcomeAck, "published", nil)
}

// uploadFailed maps cover store errors to outcomes
func (p *Publisher) uploadFailed(ctx context.Context, msg domain.ProcessMessage, source *schema.Source, err error) domain.Outcome {
	switch {
	case errors.Is(err, coverstore.ErrUnauthorized):
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "cover store rejected credentials", err)

	case errors.Is(err, coverstore.ErrNotFound):
		if clearErr := p.store.ClearSourceOriginal(ctx, source.ID); clearErr != nil {
			return settle(ctx, p.Name(), msg, domain.OutcomeRequeue, "failed to clear source original", clearErr)
		}
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "original file not found", err)

	case errors.Is(err, coverstore.ErrFileTooLarge):
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "original file too large", err)

	case errors.Is(err, coverstore.ErrInvalidImage):
		return settle(ctx, p.Name(), msg, domain.OutcomeReject, "original file is not an image", err)

	default:
		return settle(ctx, p.Name(), msg, domain.OutcomeRequeue, "upload failed", err)
	}
}

// removeAsset deletes a superseded cover; failures are logged only
func (p *Publisher) removeAsset(ctx context.Context, msg domain.ProcessMessage, image *schema.Image, reason string) {
	if image.ProviderAssetID == nil || *image.ProviderAssetID == "" {
		return
	}

	fields := append(logger.MessageFields(msg),
		zap.String("asset_id", *image.ProviderAssetID),
		zap.String("reason", reason))

	if err := p.covers.Remove(ctx, *image.ProviderAssetID); err != nil {
		logger.WarnCtx(ctx, "Failed to remove superseded cover", append(fields, zap.Error(err))...)
		return
	}

	logger.InfoCtx(ctx, "Removed superseded cover", fields...)
}

func sameAsset(image *schema.Image, assetID string) bool {
	return image.ProviderAssetID != nil && *image.ProviderAssetID == assetID
}
