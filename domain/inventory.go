package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessImportReceipt    = "receipt imported successfully"
	MessageSuccessDuplicateReceipt = "receipt already imported"
	MessageSuccessGetStock         = "in-stock items retrieved successfully"
	MessageSuccessGetExpiring      = "expiring items retrieved successfully"
	MessageSuccessMarkConsumed     = "items marked as consumed"
	MessageSuccessPartialConsumed  = "items partially consumed, insufficient stock"
	MessageSuccessExpireOverdue    = "overdue items expired"
	MessageSuccessGetStats         = "inventory statistics retrieved successfully"

	MessageFailedImportReceipt = "failed to import receipt"
	MessageFailedGetStock      = "failed to retrieve in-stock items"
	MessageFailedGetExpiring   = "failed to retrieve expiring items"
	MessageFailedMarkConsumed  = "failed to mark items as consumed"
	MessageFailedExpireOverdue = "failed to expire overdue items"
	MessageFailedGetStats      = "failed to retrieve inventory statistics"

	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidDays     = errors.New("days must not be negative")
)

type ImportStatus string

const (
	ImportStatusImported  ImportStatus = "imported"
	ImportStatusDuplicate ImportStatus = "duplicate"
	ImportStatusEmpty     ImportStatus = "empty"
	ImportStatusFailed    ImportStatus = "failed"
)

type (
	ConsumeRequest struct {
		ProductName string `json:"product_name" validate:"required"`
		Count       int    `json:"count" validate:"required,min=1"`
	}

	ExpiringQuery struct {
		Days int `query:"days" validate:"min=0,max=3650"`
	}

	// StockItem is one row of the in-stock summary, aggregated per product.
	StockItem struct {
		Name          string      `json:"name"`
		DisplayName   string      `json:"display_name"`
		TotalQuantity int         `json:"total_quantity"`
		Category      string      `json:"category"`
		Subcategory   string      `json:"subcategory"`
		StorageType   StorageType `json:"storage_type"`
		IsFood        bool        `json:"is_food"`
		LastPurchased time.Time   `json:"last_purchased"`
	}

	ExpiringItem struct {
		LotID         string      `json:"lot_id"`
		Name          string      `json:"name"`
		Quantity      int         `json:"quantity"`
		ExpiryDate    time.Time   `json:"expiry_date"`
		DaysRemaining int         `json:"days_remaining"`
		StorageType   StorageType `json:"storage_type"`
		PurchasedAt   time.Time   `json:"purchased_at"`
	}

	// ConsumeResult reports a consumption; Shortfall is non-zero when stock
	// ran out before Requested units were consumed.
	ConsumeResult struct {
		ProductName  string `json:"product_name"`
		Requested    int    `json:"requested"`
		Consumed     int    `json:"consumed"`
		Shortfall    int    `json:"shortfall"`
		LotsDepleted int    `json:"lots_depleted"`
	}

	// InventoryStats counts lots and units by state.
	InventoryStats struct {
		Products          int `json:"products"`
		Receipts          int `json:"receipts"`
		PurchasedQuantity int `json:"purchased_quantity"`
		InStockLots       int `json:"in_stock_lots"`
		ConsumedLots      int `json:"consumed_lots"`
		ExpiredLots       int `json:"expired_lots"`
		InStockQuantity   int `json:"in_stock_quantity"`
		ConsumedQuantity  int `json:"consumed_quantity"`
		ExpiredQuantity   int `json:"expired_quantity"`
	}

	ReceiptImportResult struct {
		ReceiptID    string           `json:"receipt_id"`
		StoreName    string           `json:"store_name"`
		PurchasedAt  time.Time        `json:"purchased_at"`
		Status       ImportStatus     `json:"status"`
		Inserted     int              `json:"inserted"`
		FoodItems    int              `json:"food_items"`
		NonFoodItems int              `json:"non_food_items"`
		Items        []ClassifiedItem `json:"items,omitempty"`
		Error        string           `json:"error,omitempty"`
	}

	ImportSummary struct {
		Imported      int                   `json:"imported"`
		Duplicates    int                   `json:"duplicates"`
		Empty         int                   `json:"empty"`
		Failed        int                   `json:"failed"`
		ItemsInserted int                   `json:"items_inserted"`
		FoodItems     int                   `json:"food_items"`
		NonFoodItems  int                   `json:"non_food_items"`
		Receipts      []ReceiptImportResult `json:"receipts"`
	}
)

// Add folds one receipt result into the summary.
func (s *ImportSummary) Add(r ReceiptImportResult) {
	switch r.Status {
	case ImportStatusImported:
		s.Imported++
	case ImportStatusDuplicate:
		s.Duplicates++
	case ImportStatusEmpty:
		s.Empty++
	case ImportStatusFailed:
		s.Failed++
	}
	s.ItemsInserted += r.Inserted
	s.FoodItems += r.FoodItems
	s.NonFoodItems += r.NonFoodItems
	s.Receipts = append(s.Receipts, r)
}
