package schema

import "time"

// Image represents the images table - a cover uploaded to the cover store
type Image struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ImageURL is the delivery URL in the cover store
	ImageURL *string `gorm:"column:image_url;type:text"`
	Width    int     `gorm:"column:width;not null;default:0"`
	Height   int     `gorm:"column:height;not null;default:0"`
	// Size is the file size in bytes
	Size   int64  `gorm:"column:size;not null;default:0"`
	Format string `gorm:"column:format;not null;type:text;default:''"`
	// AutoGenerated marks placeholder covers; a real vendor image supersedes them
	AutoGenerated bool `gorm:"column:auto_generated;not null;default:false"`
	// ProviderAssetID is the cover store's id, needed to remove the asset
	ProviderAssetID *string   `gorm:"column:provider_asset_id;type:text;uniqueIndex:idx_images_provider_asset_id"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Image model
func (Image) TableName() string {
	return "images"
}
