package schema

import "time"

// KeyValueStore represents the key_value_store table - small operational state
// such as the outcome of the last harvest per vendor
type KeyValueStore struct {
	Key       string    `gorm:"column:key;primaryKey;type:text"`
	Value     string    `gorm:"column:value;not null;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the KeyValueStore model
func (KeyValueStore) TableName() string {
	return "key_value_store"
}
