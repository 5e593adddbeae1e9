package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrInvalidReceiptID = errors.New("invalid receipt ID")
)

type (
	// ReceiptSummary is one entry of a receipt listing.
	ReceiptSummary struct {
		ReceiptID     string    `json:"receipt_id"`
		StoreName     string    `json:"store_name"`
		StoreCode     string    `json:"store_code"`
		PurchasedAt   time.Time `json:"purchased_at"`
		Total         *int      `json:"total,omitempty"`
		WorkstationID string    `json:"workstation_id,omitempty"`
	}

	// ReceiptDetail is a fetched receipt: its printed text lines and, when the
	// service provides it, the raw structured payload.
	ReceiptDetail struct {
		ReceiptID   string          `json:"receipt_id" validate:"required"`
		StoreName   string          `json:"store_name"`
		StoreCode   string          `json:"store_code"`
		PurchasedAt time.Time       `json:"purchased_at" validate:"required"`
		Lines       []string        `json:"lines"`
		Raw         json.RawMessage `json:"raw,omitempty"`
	}

	PurchaseLineItem struct {
		Name     string  `json:"name"`
		Price    int     `json:"price"`
		Quantity int     `json:"quantity"`
		Discount int     `json:"discount"`
		Barcode  *string `json:"barcode,omitempty"`
	}

	// ParsedReceipt is the output of the receipt parser for one receipt.
	ParsedReceipt struct {
		ReceiptID   string             `json:"receipt_id"`
		StoreName   string             `json:"store_name"`
		StoreCode   string             `json:"store_code"`
		PurchasedAt time.Time          `json:"purchased_at"`
		Structured  bool               `json:"structured"`
		Items       []PurchaseLineItem `json:"items"`
	}

	ClassifiedItem struct {
		PurchaseLineItem
		NormalizedName string      `json:"normalized_name"`
		Info           ProductInfo `json:"info"`
		Source         string      `json:"source"`
	}
)

// Summary returns the listing view of a detail.
func (d ReceiptDetail) Summary() ReceiptSummary {
	return ReceiptSummary{
		ReceiptID:   d.ReceiptID,
		StoreName:   d.StoreName,
		StoreCode:   d.StoreCode,
		PurchasedAt: d.PurchasedAt,
	}
}

var (
	MessageSuccessImportRange = "receipts imported successfully"
	MessageFailedImportRange  = "failed to import receipts"
)

// ImportRangeRequest selects receipts purchased in [From, To). Dates are
// local calendar days; an empty bound is open.
type ImportRangeRequest struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}
