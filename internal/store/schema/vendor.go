package schema

import "time"

// Vendor represents the vendors table - a cover image supplier and its feed endpoints
type Vendor struct {
	// ID is assigned per adapter and stays stable across environments
	ID int64 `gorm:"column:id;primaryKey"`
	// Name is the adapter name (e.g., saxo, publizon)
	Name string `gorm:"column:name;not null;type:text;uniqueIndex:idx_vendors_name"`
	// Rank orders vendors when several supply a cover for the same identifier; lower wins
	Rank int `gorm:"column:rank;not null;default:0"`
	// ImageServerURI is the base URI covers are served from, when the vendor has one
	ImageServerURI *string `gorm:"column:image_server_uri;type:text"`
	// DataServerURI is the feed location
	DataServerURI  *string `gorm:"column:data_server_uri;type:text"`
	DataServerUser *string `gorm:"column:data_server_user;type:text"`
	// DataServerPassword is stored so operators can rotate credentials without a deploy
	DataServerPassword *string   `gorm:"column:data_server_password;type:text"`
	CreatedAt          time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Vendor model
func (Vendor) TableName() string {
	return "vendors"
}
