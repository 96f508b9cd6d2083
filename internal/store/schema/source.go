package schema

import "time"

// Source represents the sources table - one vendor's image URL for one identifier.
// (vendor_id, match_id, match_type) is unique.
type Source struct {
	// ID is the internal database primary key
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement"`
	VendorID int64 `gorm:"column:vendor_id;not null;uniqueIndex:idx_sources_natural_key,priority:1"`
	// MatchID is the normalized identifier value
	MatchID string `gorm:"column:match_id;not null;type:text;uniqueIndex:idx_sources_natural_key,priority:2"`
	// MatchType is the identifier type (isbn, issn, faust, pid, ...)
	MatchType string `gorm:"column:match_type;not null;type:text;uniqueIndex:idx_sources_natural_key,priority:3"`

	// OriginalFile is the vendor image URL; nil after the vendor reported it missing
	OriginalFile *string `gorm:"column:original_file;type:text"`
	// OriginalLastModified and OriginalContentLength are the fingerprint of the
	// remote file as last probed; both nil until the first successful probe
	OriginalLastModified  *time.Time `gorm:"column:original_last_modified;type:timestamptz"`
	OriginalContentLength *int64     `gorm:"column:original_content_length"`

	// ImageID links the published cover; nil until the publisher succeeds
	ImageID *int64 `gorm:"column:image_id;index:idx_sources_image_id"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Vendor Vendor `gorm:"foreignKey:VendorID"`
	Image  *Image `gorm:"foreignKey:ImageID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for the Source model
func (Source) TableName() string {
	return "sources"
}

// HasFingerprint reports whether the source has been probed successfully
func (s *Source) HasFingerprint() bool {
	return s.OriginalContentLength != nil
}
