package classifier

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/entities"
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	CacheRepository interface {
		GetCachedInfo(ctx context.Context, name string) (*entities.SearchCache, error)
		SaveCachedInfo(ctx context.Context, name string, info domain.ProductInfo, source string) error
		CountCachedInfo(ctx context.Context) (int64, error)
	}

	cacheRepository struct {
		db *gorm.DB
	}
)

func NewCacheRepository(db *gorm.DB) CacheRepository {
	return &cacheRepository{db: db}
}

// GetCachedInfo returns nil without error on a cache miss.
func (r *cacheRepository) GetCachedInfo(ctx context.Context, name string) (*entities.SearchCache, error) {
	var entry entities.SearchCache
	if err := r.db.WithContext(ctx).Where("product_name = ?", name).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// SaveCachedInfo keeps the first result stored for a name.
func (r *cacheRepository) SaveCachedInfo(ctx context.Context, name string, info domain.ProductInfo, source string) error {
	entry := entities.SearchCache{
		ProductName: name,
		Result:      datatypes.NewJSONType(info),
		Source:      source,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "product_name"}}, DoNothing: true}).
		Create(&entry).Error
}

func (r *cacheRepository) CountCachedInfo(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.SearchCache{}).Count(&count).Error
	return count, err
}
