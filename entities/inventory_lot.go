package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	LotStateInStock  = "in_stock"
	LotStateConsumed = "consumed"
	LotStateExpired  = "expired"
)

type InventoryLot struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	PurchaseID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"purchase_id"`
	Quantity          int        `gorm:"not null;check:chk_inventory_quantity,quantity >= 1" json:"quantity"`
	RemainingQuantity int        `gorm:"not null;check:chk_inventory_remaining,remaining_quantity >= 0" json:"remaining_quantity"`
	ConsumedQuantity  int        `gorm:"not null;check:chk_inventory_consumed,consumed_quantity >= 0" json:"consumed_quantity"`
	State             string     `gorm:"not null;index;check:chk_inventory_state,state IN ('in_stock','consumed','expired')" json:"state"`
	ExpiryDate        *time.Time `gorm:"index" json:"expiry_date,omitempty"`

	Purchase *Purchase `gorm:"foreignKey:PurchaseID"`
	Timestamp
}

func (InventoryLot) TableName() string { return "inventory" }
