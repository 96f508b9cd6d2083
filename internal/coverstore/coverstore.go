package coverstore

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized is returned when the cover store rejects the credentials
	ErrUnauthorized = errors.New("cover store unauthorized")

	// ErrNotFound is returned when the source image or the stored asset does not exist
	ErrNotFound = errors.New("cover not found")

	// ErrFileTooLarge is returned when the source image exceeds the upload limit
	ErrFileTooLarge = errors.New("cover file too large")

	// ErrInvalidImage is returned when the source is not a decodable image
	ErrInvalidImage = errors.New("invalid cover image")
)

// UploadResult describes a cover stored in the cover store
type UploadResult struct {
	URL     string
	Width   int
	Height  int
	Size    int64
	Format  string
	AssetID string
}

// Provider uploads covers to and removes covers from the canonical cover store
//
//go:generate mockgen -source=coverstore.go -destination=../mocks/coverstore.go -package=mocks -mock_names=Provider=MockCoverStore
type Provider interface {
	// Upload fetches sourceURL and stores it under folder/identifier
	Upload(ctx context.Context, sourceURL, folder, identifier string, tags map[string]string) (*UploadResult, error)

	// Remove deletes a stored asset; returns ErrNotFound when it is already gone
	Remove(ctx context.Context, assetID string) error

	// Name returns the provider name
	Name() string
}
