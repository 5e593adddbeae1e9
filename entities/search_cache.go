package entities

import (
	"Pantry-Ledger/domain"

	"gorm.io/datatypes"
)

// SearchCache keeps every external classification ever performed, keyed by
// normalized product name. Entries never expire.
type SearchCache struct {
	ID          uint                                   `gorm:"primaryKey" json:"id"`
	ProductName string                                 `gorm:"not null;uniqueIndex" json:"product_name"`
	Result      datatypes.JSONType[domain.ProductInfo] `gorm:"not null" json:"result"`
	Source      string                                 `json:"source"` // "external", "fallback"
	Timestamp
}

func (SearchCache) TableName() string { return "search_cache" }
