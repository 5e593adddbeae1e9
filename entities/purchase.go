package entities

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is one imported receipt line. The (receipt_id, line_no) pair is
// unique so a receipt can never be written twice.
type Purchase struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ReceiptID   string    `gorm:"not null;uniqueIndex:ux_purchases_receipt_line,priority:1" json:"receipt_id"`
	LineNo      int       `gorm:"not null;uniqueIndex:ux_purchases_receipt_line,priority:2" json:"line_no"`
	StoreName   string    `json:"store_name"`
	StoreCode   string    `json:"store_code"`
	Barcode     *string   `json:"barcode,omitempty"`
	Price       int       `gorm:"not null;check:chk_purchases_price,price >= 0" json:"price"`
	Quantity    int       `gorm:"not null;check:chk_purchases_quantity,quantity >= 1" json:"quantity"`
	Discount    int       `gorm:"not null;check:chk_purchases_discount,discount >= 0" json:"discount"`
	PurchasedAt time.Time `gorm:"not null;index" json:"purchased_at"`

	Product *Product        `gorm:"foreignKey:ProductID"`
	Lots    []*InventoryLot `gorm:"foreignKey:PurchaseID"`
	Timestamp
}
