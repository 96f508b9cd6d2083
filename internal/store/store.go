package store

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// EnsureVendor creates the vendor or refreshes its name, rank and feed endpoints
	EnsureVendor(ctx context.Context, input EnsureVendorInput) (*schema.Vendor, error)
	// GetVendor retrieves a vendor by id; returns nil when it does not exist
	GetVendor(ctx context.Context, id int64) (*schema.Vendor, error)

	// GetSource retrieves a source with its image by natural key; returns nil when it does not exist
	GetSource(ctx context.Context, key domain.SourceKey) (*schema.Source, error)
	// FindSources retrieves the sources of one vendor and identifier type whose match id is in matchIDs
	FindSources(ctx context.Context, vendorID int64, matchType domain.IdentifierType, matchIDs []string) ([]schema.Source, error)
	// UpsertSources inserts or updates sources in a single statement keyed on the natural key.
	// An update replaces the original file and clears the stored fingerprint.
	UpsertSources(ctx context.Context, inputs []UpsertSourceInput) error
	// UpdateSourceFingerprint stores the probed fingerprint of the original file
	UpdateSourceFingerprint(ctx context.Context, sourceID int64, fingerprint Fingerprint) error
	// ClearSourceOriginal clears the original file and its fingerprint
	ClearSourceOriginal(ctx context.Context, sourceID int64) error

	// PublishImage creates or replaces the image linked to a source and links it
	PublishImage(ctx context.Context, input PublishImageInput) (*schema.Image, error)
	// UpsertSearch writes the derived search row for a source
	UpsertSearch(ctx context.Context, input UpsertSearchInput) error
	// GetSearch retrieves the search row of a source; returns nil when it does not exist
	GetSearch(ctx context.Context, sourceID int64) (*schema.Search, error)

	// DeleteSource removes the source, its search rows and its image in one transaction.
	// It returns the removed image (nil if there was none) and whether the source existed.
	// When the image has a cover store asset, the asset id is kept under
	// PendingRemovalKey(key) in the same transaction until ClearPendingRemoval.
	DeleteSource(ctx context.Context, key domain.SourceKey) (*schema.Image, bool, error)
	// GetPendingRemoval returns the cover store asset id left by DeleteSource, or ""
	GetPendingRemoval(ctx context.Context, key domain.SourceKey) (string, error)
	// ClearPendingRemoval forgets the asset id once the cover store no longer has it
	ClearPendingRemoval(ctx context.Context, key domain.SourceKey) error

	// SetKeyValue sets a key-value pair
	SetKeyValue(ctx context.Context, key string, value string) error
	// GetKeyValue retrieves a value by key; returns "" when the key does not exist
	GetKeyValue(ctx context.Context, key string) (string, error)
}

const pendingRemovalKeyPrefix = "cover:pending_removal:"

// PendingRemovalKey is the key-value store key holding the asset id of a deleted source's cover
func PendingRemovalKey(key domain.SourceKey) string {
	return pendingRemovalKeyPrefix + key.String()
}

// EnsureVendorInput represents the input for seeding a vendor
type EnsureVendorInput struct {
	ID                 int64
	Name               string
	Rank               int
	ImageServerURI     *string
	DataServerURI      *string
	DataServerUser     *string
	DataServerPassword *string
}

// UpsertSourceInput represents one reconciled row
type UpsertSourceInput struct {
	VendorID     int64
	MatchID      string
	MatchType    domain.IdentifierType
	OriginalFile string
}

// Fingerprint is the probed state of a remote file
type Fingerprint struct {
	ContentLength int64
	LastModified  *time.Time
}

// Equal reports whether the fingerprint matches the one stored on source
func (f Fingerprint) Equal(source *schema.Source) bool {
	if source == nil || source.OriginalContentLength == nil {
		return false
	}
	if *source.OriginalContentLength != f.ContentLength {
		return false
	}
	switch {
	case f.LastModified == nil && source.OriginalLastModified == nil:
		return true
	case f.LastModified == nil || source.OriginalLastModified == nil:
		return false
	default:
		return f.LastModified.Equal(*source.OriginalLastModified)
	}
}

// PublishImageInput represents a cover uploaded to the cover store
type PublishImageInput struct {
	SourceID        int64
	ImageURL        string
	Width           int
	Height          int
	Size            int64
	Format          string
	ProviderAssetID string
	AutoGenerated   bool
}

// UpsertSearchInput represents the derived search row of a published source
type UpsertSearchInput struct {
	SourceID       int64
	Identifier     string
	IdentifierType domain.IdentifierType
	ImageURL       string
	ImageFormat    string
	Width          int
	Height         int
	Material       datatypes.JSON
}
