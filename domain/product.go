package domain

import (
	"time"
)

type StorageType string

const (
	StorageAmbient      StorageType = "ambient"
	StorageRefrigerated StorageType = "refrigerated"
	StorageFrozen       StorageType = "frozen"
)

const UnknownCategory = "unknown"

// Valid reports whether s is one of the known storage types.
func (s StorageType) Valid() bool {
	switch s {
	case StorageAmbient, StorageRefrigerated, StorageFrozen:
		return true
	}
	return false
}

// DefaultShelfLifeDays is used for food items whose classification carried
// no explicit shelf life.
func (s StorageType) DefaultShelfLifeDays() int {
	switch s {
	case StorageRefrigerated:
		return 5
	case StorageFrozen:
		return 90
	default:
		return 30
	}
}

// ProductInfo is the taxonomy metadata resolved for a product name.
type ProductInfo struct {
	Category      string      `json:"category" yaml:"category"`
	Subcategory   string      `json:"subcategory" yaml:"subcategory"`
	ContentAmount *float64    `json:"content_amount,omitempty" yaml:"content_amount,omitempty"`
	ContentUnit   string      `json:"content_unit,omitempty" yaml:"content_unit,omitempty"`
	Manufacturer  string      `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	StorageType   StorageType `json:"storage_type" yaml:"storage_type"`
	ShelfLifeDays *int        `json:"shelf_life_days,omitempty" yaml:"shelf_life_days,omitempty"`
	IsFood        bool        `json:"is_food" yaml:"is_food"`
}

// DefaultProductInfo is the classification used when nothing better is known.
func DefaultProductInfo() ProductInfo {
	return ProductInfo{
		Category:    UnknownCategory,
		StorageType: StorageAmbient,
		IsFood:      true,
	}
}

// IsUnknown reports whether the info carries no category.
func (p ProductInfo) IsUnknown() bool {
	return p.Category == "" || p.Category == UnknownCategory
}

// Completeness counts the populated descriptive fields. A product master is
// only overwritten by info that is at least as complete.
func (p ProductInfo) Completeness() int {
	n := 0
	if !p.IsUnknown() {
		n += 2
	}
	if p.Subcategory != "" {
		n++
	}
	if p.ContentAmount != nil {
		n++
	}
	if p.Manufacturer != "" {
		n++
	}
	if p.ShelfLifeDays != nil {
		n++
	}
	return n
}

// EffectiveShelfLifeDays returns the shelf life used for expiry, or false
// for non-food items that never expire.
func (p ProductInfo) EffectiveShelfLifeDays() (int, bool) {
	if p.ShelfLifeDays != nil {
		return *p.ShelfLifeDays, true
	}
	if !p.IsFood {
		return 0, false
	}
	storage := p.StorageType
	if !storage.Valid() {
		storage = StorageAmbient
	}
	return storage.DefaultShelfLifeDays(), true
}

// ExpiryDate computes the expiry date of a purchase as a calendar date in
// loc, returned as midnight UTC of that date. Nil means no expiry.
func (p ProductInfo) ExpiryDate(purchasedAt time.Time, loc *time.Location) *time.Time {
	days, ok := p.EffectiveShelfLifeDays()
	if !ok {
		return nil
	}
	expiry := DateOf(purchasedAt, loc).AddDate(0, 0, days)
	return &expiry
}

// DateOf truncates t to its calendar date in loc, expressed as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
