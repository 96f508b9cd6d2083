package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Search represents the searches table - the indexable projection of a Source with its cover
type Search struct {
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement"`
	SourceID int64 `gorm:"column:source_id;not null;uniqueIndex:idx_searches_source_id"`
	// IsIdentifier and IsType mirror the Source match key so the index can be rebuilt without joins
	IsIdentifier string `gorm:"column:is_identifier;not null;type:text;index:idx_searches_identifier,priority:1"`
	IsType       string `gorm:"column:is_type;not null;type:text;index:idx_searches_identifier,priority:2"`
	ImageURL     string `gorm:"column:image_url;not null;type:text"`
	ImageFormat  string `gorm:"column:image_format;not null;type:text"`
	Width        int    `gorm:"column:width;not null;default:0"`
	Height       int    `gorm:"column:height;not null;default:0"`
	// Material is the bibliographic record returned by the search service
	Material  datatypes.JSON `gorm:"column:material;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	Source Source `gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Search model
func (Search) TableName() string {
	return "searches"
}
