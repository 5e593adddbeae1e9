package entities

import (
	"github.com/google/uuid"
)

// Product is the master record of a purchased product. Name holds the
// normalized product name and is the identity of the row.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"not null;uniqueIndex" json:"name"`
	DisplayName   string    `json:"display_name"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory"`
	ContentAmount *float64  `json:"content_amount,omitempty"`
	ContentUnit   string    `json:"content_unit"`
	Manufacturer  string    `json:"manufacturer"`
	StorageType   string    `gorm:"not null" json:"storage_type"` // "ambient", "refrigerated", "frozen"
	ShelfLifeDays *int      `json:"shelf_life_days,omitempty"`
	IsFood        bool      `json:"is_food"`

	Purchases []*Purchase `gorm:"foreignKey:ProductID"`
	Timestamp
}
