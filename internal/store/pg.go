package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bibcovers/cover-indexer/internal/domain"
	"github.com/bibcovers/cover-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool applies pool settings to the sql.DB under a gorm connection.
// Zero values fall back to 20 open / 5 idle connections, 5m lifetime and 10m idle time.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	maxIdleConns = min(maxIdleConns, maxOpenConns)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// EnsureVendor creates the vendor or refreshes its descriptive columns
func (s *pgStore) EnsureVendor(ctx context.Context, input EnsureVendorInput) (*schema.Vendor, error) {
	vendor := schema.Vendor{
		ID:                 input.ID,
		Name:               input.Name,
		Rank:               input.Rank,
		ImageServerURI:     input.ImageServerURI,
		DataServerURI:      input.DataServerURI,
		DataServerUser:     input.DataServerUser,
		DataServerPassword: input.DataServerPassword,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":                 input.Name,
			"rank":                 input.Rank,
			"image_server_uri":     input.ImageServerURI,
			"data_server_uri":      input.DataServerURI,
			"data_server_user":     input.DataServerUser,
			"data_server_password": input.DataServerPassword,
			"updated_at":           gorm.Expr("now()"),
		}),
	}).Create(&vendor).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure vendor: %w", err)
	}

	return &vendor, nil
}

// GetVendor retrieves a vendor by id
func (s *pgStore) GetVendor(ctx context.Context, id int64) (*schema.Vendor, error) {
	var vendor schema.Vendor
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return &vendor, nil
}

// GetSource retrieves a source with its image by natural key
func (s *pgStore) GetSource(ctx context.Context, key domain.SourceKey) (*schema.Source, error) {
	var source schema.Source
	err := s.db.WithContext(ctx).
		Preload("Image").
		Where("vendor_id = ? AND match_id = ? AND match_type = ?", key.VendorID, key.Identifier, string(key.IdentifierType)).
		First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

// FindSources retrieves existing sources for a batch with one indexed IN query
func (s *pgStore) FindSources(ctx context.Context, vendorID int64, matchType domain.IdentifierType, matchIDs []string) ([]schema.Source, error) {
	if len(matchIDs) == 0 {
		return []schema.Source{}, nil
	}

	var sources []schema.Source
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND match_type = ? AND match_id IN ?", vendorID, string(matchType), matchIDs).
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find sources: %w", err)
	}
	return sources, nil
}

// UpsertSources inserts or updates sources in a single statement
func (s *pgStore) UpsertSources(ctx context.Context, inputs []UpsertSourceInput) error {
	if len(inputs) == 0 {
		return nil
	}

	sources := make([]schema.Source, 0, len(inputs))
	for _, input := range inputs {
		file := input.OriginalFile
		sources = append(sources, schema.Source{
			VendorID:     input.VendorID,
			MatchID:      input.MatchID,
			MatchType:    string(input.MatchType),
			OriginalFile: &file,
		})
	}

	// A changed URL invalidates the previous probe
	updates := clause.AssignmentColumns([]string{"original_file"})
	updates = append(updates, clause.Assignments(map[string]interface{}{
		"original_last_modified":  nil,
		"original_content_length": nil,
		"updated_at":              gorm.Expr("now()"),
	})...)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "vendor_id"},
			{Name: "match_id"},
			{Name: "match_type"},
		},
		DoUpdates: updates,
	}).Omit("Vendor", "Image").Create(&sources).Error
	if err != nil {
		return fmt.Errorf("failed to upsert sources: %w", err)
	}

	return nil
}

// UpdateSourceFingerprint stores the probed fingerprint of the original file
func (s *pgStore) UpdateSourceFingerprint(ctx context.Context, sourceID int64, fingerprint Fingerprint) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Source{}).
		Where("id = ?", sourceID).
		Updates(map[string]interface{}{
			"original_content_length": fingerprint.ContentLength,
			"original_last_modified":  fingerprint.LastModified,
			"updated_at":              gorm.Expr("now()"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update source fingerprint: %w", err)
	}
	return nil
}

// ClearSourceOriginal clears the original file and its fingerprint
func (s *pgStore) ClearSourceOriginal(ctx context.Context, sourceID int64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Source{}).
		Where("id = ?", sourceID).
		Updates(map[string]interface{}{
			"original_file":           nil,
			"original_content_length": nil,
			"original_last_modified":  nil,
			"updated_at":              gorm.Expr("now()"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear source original: %w", err)
	}
	return nil
}

// PublishImage creates or replaces the image linked to a source.
// The source row is locked so concurrent deliveries for the same source serialize.
func (s *pgStore) PublishImage(ctx context.Context, input PublishImageInput) (*schema.Image, error) {
	var image schema.Image

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source schema.Source
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.SourceID).
			First(&source).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSourceNotFound
			}
			return fmt.Errorf("failed to lock source: %w", err)
		}

		url := input.ImageURL
		assetID := input.ProviderAssetID
		image = schema.Image{
			ImageURL:        &url,
			Width:           input.Width,
			Height:          input.Height,
			Size:            input.Size,
			Format:          input.Format,
			AutoGenerated:   input.AutoGenerated,
			ProviderAssetID: &assetID,
		}

		if source.ImageID != nil {
			image.ID = *source.ImageID
			err = tx.Model(&schema.Image{}).
				Where("id = ?", image.ID).
				Updates(map[string]interface{}{
					"image_url":         image.ImageURL,
					"width":             image.Width,
					"height":            image.Height,
					"size":              image.Size,
					"format":            image.Format,
					"auto_generated":    image.AutoGenerated,
					"provider_asset_id": image.ProviderAssetID,
					"updated_at":        gorm.Expr("now()"),
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update image: %w", err)
			}
			return nil
		}

		if err := tx.Create(&image).Error; err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}

		err = tx.Model(&schema.Source{}).
			Where("id = ?", source.ID).
			Updates(map[string]interface{}{
				"image_id":   image.ID,
				"updated_at": gorm.Expr("now()"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to link image to source: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &image, nil
}

// UpsertSearch writes the derived search row for a source
func (s *pgStore) UpsertSearch(ctx context.Context, input UpsertSearchInput) error {
	search := schema.Search{
		SourceID:     input.SourceID,
		IsIdentifier: input.Identifier,
		IsType:       string(input.IdentifierType),
		ImageURL:     input.ImageURL,
		ImageFormat:  input.ImageFormat,
		Width:        input.Width,
		Height:       input.Height,
		Material:     input.Material,
	}

	updates := clause.AssignmentColumns([]string{
		"is_identifier",
		"is_type",
		"image_url",
		"image_format",
		"width",
		"height",
		"material",
	})
	updates = append(updates, clause.Assignment{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("now()")})

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoUpdates: updates,
	}).Omit("Source").Create(&search).Error
	if err != nil {
		return fmt.Errorf("failed to upsert search: %w", err)
	}
	return nil
}

// GetSearch retrieves the search row of a source
func (s *pgStore) GetSearch(ctx context.Context, sourceID int64) (*schema.Search, error) {
	var search schema.Search
	err := s.db.WithContext(ctx).Where("source_id = ?", sourceID).First(&search).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search: %w", err)
	}
	return &search, nil
}

// DeleteSource removes the source, its search rows and its image in one transaction
func (s *pgStore) DeleteSource(ctx context.Context, key domain.SourceKey) (*schema.Image, bool, error) {
	var removed *schema.Image
	found := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source schema.Source
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("vendor_id = ? AND match_id = ? AND match_type = ?", key.VendorID, key.Identifier, string(key.IdentifierType)).
			First(&source).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to lock source: %w", err)
		}
		found = true

		if err := tx.Where("source_id = ?", source.ID).Delete(&schema.Search{}).Error; err != nil {
			return fmt.Errorf("failed to delete searches: %w", err)
		}

		if err := tx.Delete(&schema.Source{}, source.ID).Error; err != nil {
			return fmt.Errorf("failed to delete source: %w", err)
		}

		if source.ImageID == nil {
			return nil
		}

		var image schema.Image
		err = tx.Where("id = ?", *source.ImageID).First(&image).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load image: %w", err)
		}

		if err := tx.Delete(&schema.Image{}, image.ID).Error; err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}
		removed = &image

		if image.ProviderAssetID == nil || *image.ProviderAssetID == "" {
			return nil
		}
		if err := setKeyValue(tx, PendingRemovalKey(key), *image.ProviderAssetID); err != nil {
			return fmt.Errorf("failed to record pending cover removal: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return removed, found, nil
}

// GetPendingRemoval returns the asset id recorded by DeleteSource
func (s *pgStore) GetPendingRemoval(ctx context.Context, key domain.SourceKey) (string, error) {
	return s.GetKeyValue(ctx, PendingRemovalKey(key))
}

// ClearPendingRemoval deletes the asset id recorded by DeleteSource
func (s *pgStore) ClearPendingRemoval(ctx context.Context, key domain.SourceKey) error {
	err := s.db.WithContext(ctx).Where("key = ?", PendingRemovalKey(key)).Delete(&schema.KeyValueStore{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear pending cover removal: %w", err)
	}

	return nil
}

// SetKeyValue sets a key-value pair
func (s *pgStore) SetKeyValue(ctx context.Context, key string, value string) error {
	return setKeyValue(s.db.WithContext(ctx), key, value)
}

func setKeyValue(db *gorm.DB, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("now()"),
		}),
	}).Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set key-value: %w", err)
	}

	return nil
}

// GetKeyValue retrieves a value by key
func (s *pgStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key-value: %w", err)
	}

	return kv.Value, nil
}
