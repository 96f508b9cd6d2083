package cloudflare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/cloudflare/cloudflare-go"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/bibcovers/cover-indexer/internal/adapter"
	"github.com/bibcovers/cover-indexer/internal/coverstore"
	"github.com/bibcovers/cover-indexer/internal/logger"
)

const (
	CLOUDFLARE_PROVIDER_NAME       = "cloudflare"
	CLOUDFLARE_IMAGE_DELIVERY_HOST = "https://imagedelivery.net/"

	defaultVariant      = "public"
	defaultMaxImageSize = 10 * 1024 * 1024
)

// Config holds configuration for Cloudflare Images
type Config struct {
	// AccountID is the Cloudflare account ID for Images
	AccountID string
	// Variant is the delivery variant stored as the cover URL
	Variant string
	// MaxImageSize is the largest source file accepted, in bytes
	MaxImageSize int64
}

type coverStore struct {
	cfClient   adapter.CloudflareClient
	httpClient adapter.HTTPClient
	config     Config
	rc         *cloudflare.ResourceContainer
}

// NewCoverStore creates a cover store backed by Cloudflare Images
func NewCoverStore(cfClient adapter.CloudflareClient, httpClient adapter.HTTPClient, config Config) coverstore.Provider {
	if config.Variant == "" {
		config.Variant = defaultVariant
	}
	if config.MaxImageSize <= 0 {
		config.MaxImageSize = defaultMaxImageSize
	}

	return &coverStore{
		cfClient:   cfClient,
		httpClient: httpClient,
		config:     config,
		rc: &cloudflare.ResourceContainer{
			Level:      cloudflare.AccountRouteLevel,
			Identifier: config.AccountID,
		},
	}
}

// Upload downloads the vendor file, inspects it and uploads it to Cloudflare Images.
// The file is read into memory once so its size, format and dimensions are known
// before the upload call.
func (s *coverStore) Upload(ctx context.Context, sourceURL, folder, identifier string, tags map[string]string) (*coverstore.UploadResult, error) {
	if isCloudflareImageURL(sourceURL) {
		logger.WarnCtx(ctx, "Refusing to re-upload a Cloudflare hosted image", zap.String("url", sourceURL))
		return nil, fmt.Errorf("%w: self hosted url %s", coverstore.ErrInvalidImage, sourceURL)
	}

	data, err := s.download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", coverstore.ErrInvalidImage, mtype.String())
	}

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	} else {
		logger.DebugCtx(ctx, "Could not decode image dimensions", zap.String("url", sourceURL), zap.Error(err))
	}

	metadata := map[string]interface{}{
		"folder":     folder,
		"identifier": identifier,
		"source_url": sourceURL,
	}
	for k, v := range tags {
		metadata[k] = v
	}

	logger.InfoCtx(ctx, "Uploading cover to Cloudflare Images",
		zap.String("url", sourceURL),
		zap.String("identifier", identifier),
		zap.Int("size", len(data)))

	img, err := s.cfClient.UploadImage(ctx, s.rc, cloudflare.UploadImageParams{
		File:     io.NopCloser(bytes.NewReader(data)),
		Name:     path.Join(folder, identifier) + mtype.Extension(),
		Metadata: metadata,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	logger.InfoCtx(ctx, "Successfully uploaded cover",
		zap.String("identifier", identifier),
		zap.String("imageID", img.ID),
		zap.Int("variantCount", len(img.Variants)))

	return &coverstore.UploadResult{
		URL:     s.pickVariant(img.Variants),
		Width:   width,
		Height:  height,
		Size:    int64(len(data)),
		Format:  strings.TrimPrefix(mtype.Extension(), "."),
		AssetID: img.ID,
	}, nil
}

// download reads at most MaxImageSize+1 bytes so oversized files are detected without reading them fully
func (s *coverStore) download(ctx context.Context, sourceURL string) ([]byte, error) {
	body, err := s.httpClient.GetStream(ctx, sourceURL)
	if err != nil {
		switch adapter.StatusCode(err) {
		case http.StatusNotFound, http.StatusGone:
			return nil, fmt.Errorf("%w: %s", coverstore.ErrNotFound, sourceURL)
		default:
			return nil, fmt.Errorf("failed to download cover: %w", err)
		}
	}
	defer func() {
		if err := body.Close(); err != nil {
			logger.WarnCtx(ctx, "Failed to close download body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(body, s.config.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	if int64(len(data)) > s.config.MaxImageSize {
		return nil, fmt.Errorf("%w: more than %d bytes", coverstore.ErrFileTooLarge, s.config.MaxImageSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", coverstore.ErrInvalidImage)
	}

	return data, nil
}

// Remove deletes an uploaded cover
func (s *coverStore) Remove(ctx context.Context, assetID string) error {
	if err := s.cfClient.DeleteImage(ctx, s.rc, assetID); err != nil {
		return classifyError(err)
	}

	logger.InfoCtx(ctx, "Removed cover from Cloudflare Images", zap.String("imageID", assetID))
	return nil
}

// Name returns the provider name
func (s *coverStore) Name() string {
	return CLOUDFLARE_PROVIDER_NAME
}

// pickVariant returns the configured variant URL, falling back to the first variant
// Format: https://imagedelivery.net/{account_hash}/{image_id}/{variant_name}
func (s *coverStore) pickVariant(variants []string) string {
	for _, v := range variants {
		if path.Base(v) == s.config.Variant {
			return v
		}
	}
	if len(variants) > 0 {
		return variants[0]
	}
	return ""
}

// classifyError maps Cloudflare API errors onto the cover store error set
func classifyError(err error) error {
	var (
		authzErr    *cloudflare.AuthorizationError
		authnErr    *cloudflare.AuthenticationError
		notFoundErr *cloudflare.NotFoundError
	)

	switch {
	case errors.As(err, &authzErr), errors.As(err, &authnErr):
		return fmt.Errorf("%w: %v", coverstore.ErrUnauthorized, err)
	case errors.As(err, &notFoundErr):
		return fmt.Errorf("%w: %v", coverstore.ErrNotFound, err)
	default:
		return fmt.Errorf("cloudflare request failed: %w", err)
	}
}

// isCloudflareImageURL checks if a URL is a Cloudflare Images URL
func isCloudflareImageURL(url string) bool {
	return strings.HasPrefix(url, CLOUDFLARE_IMAGE_DELIVERY_HOST)
}
