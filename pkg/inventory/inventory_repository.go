package inventory

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/entities"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type (
	InventoryRepository interface {
		// Transaction runs fn against a repository bound to one database
		// transaction, committed only when fn returns nil.
		Transaction(ctx context.Context, fn func(repo InventoryRepository) error) error

		IsReceiptImported(ctx context.Context, receiptID string) (bool, error)
		GetProductByName(ctx context.Context, name string) (*entities.Product, error)
		CreateProduct(ctx context.Context, product *entities.Product) error
		UpdateProduct(ctx context.Context, product *entities.Product) error
		CreatePurchase(ctx context.Context, purchase *entities.Purchase) error
		CreateLot(ctx context.Context, lot *entities.InventoryLot) error

		GetInStockLots(ctx context.Context) ([]*entities.InventoryLot, error)
		GetExpiringLots(ctx context.Context, until time.Time) ([]*entities.InventoryLot, error)
		GetConsumableLots(ctx context.Context, productID string) ([]*entities.InventoryLot, error)
		UpdateLotQuantities(ctx context.Context, lot *entities.InventoryLot) error
		ExpireLotsBefore(ctx context.Context, day time.Time) (int64, error)

		GetStats(ctx context.Context) (domain.InventoryStats, error)
	}

	inventoryRepository struct {
		db *gorm.DB
	}
)

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Transaction(ctx context.Context, fn func(repo InventoryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&inventoryRepository{db: tx})
	})
}

func (r *inventoryRepository) IsReceiptImported(ctx context.Context, receiptID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Purchase{}).
		Where("receipt_id = ?", receiptID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *inventoryRepository) GetProductByName(ctx context.Context, name string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *inventoryRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *inventoryRepository) UpdateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *inventoryRepository) CreatePurchase(ctx context.Context, purchase *entities.Purchase) error {
	return r.db.WithContext(ctx).Omit("Product", "Lots").Create(purchase).Error
}

func (r *inventoryRepository) CreateLot(ctx context.Context, lot *entities.InventoryLot) error {
	return r.db.WithContext(ctx).Omit("Purchase").Create(lot).Error
}

func (r *inventoryRepository) GetInStockLots(ctx context.Context) ([]*entities.InventoryLot, error) {
	var lots []*entities.InventoryLot
	if err := r.db.WithContext(ctx).
		Preload("Purchase.Product").
		Where("state = ? AND remaining_quantity > 0", entities.LotStateInStock).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *inventoryRepository) GetExpiringLots(ctx context.Context, until time.Time) ([]*entities.InventoryLot, error) {
	var lots []*entities.InventoryLot
	if err := r.db.WithContext(ctx).
		Preload("Purchase.Product").
		Where("state = ? AND remaining_quantity > 0", entities.LotStateInStock).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", until).
		Order("expiry_date asc").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// GetConsumableLots returns a product's in-stock lots in consumption order:
// soonest expiry first, lots without expiry last, then oldest purchase.
func (r *inventoryRepository) GetConsumableLots(ctx context.Context, productID string) ([]*entities.InventoryLot, error) {
	var lots []*entities.InventoryLot
	if err := r.db.WithContext(ctx).
		Select("inventory.*").
		Joins("JOIN purchases ON purchases.id = inventory.purchase_id").
		Where("purchases.product_id = ?", productID).
		Where("inventory.state = ? AND inventory.remaining_quantity > 0", entities.LotStateInStock).
		Order("inventory.expiry_date IS NULL, inventory.expiry_date asc, purchases.purchased_at asc, purchases.line_no asc").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *inventoryRepository) UpdateLotQuantities(ctx context.Context, lot *entities.InventoryLot) error {
	return r.db.WithContext(ctx).Model(lot).Updates(map[string]any{
		"remaining_quantity": lot.RemainingQuantity,
		"consumed_quantity":  lot.ConsumedQuantity,
		"state":              lot.State,
	}).Error
}

func (r *inventoryRepository) ExpireLotsBefore(ctx context.Context, day time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.InventoryLot{}).
		Where("state = ? AND expiry_date IS NOT NULL AND expiry_date < ?", entities.LotStateInStock, day).
		Update("state", entities.LotStateExpired)
	return result.RowsAffected, result.Error
}

func (r *inventoryRepository) GetStats(ctx context.Context) (domain.InventoryStats, error) {
	var stats domain.InventoryStats
	var products, receipts int64

	if err := r.db.WithContext(ctx).Model(&entities.Product{}).Count(&products).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.Purchase{}).
		Distinct("receipt_id").
		Count(&receipts).Error; err != nil {
		return stats, err
	}
	stats.Products = int(products)
	stats.Receipts = int(receipts)

	var rows []struct {
		State     string
		Lots      int64
		Quantity  int64
		Remaining int64
		Consumed  int64
	}
	if err := r.db.WithContext(ctx).Model(&entities.InventoryLot{}).
		Select("state, COUNT(*) AS lots, COALESCE(SUM(quantity), 0) AS quantity, " +
			"COALESCE(SUM(remaining_quantity), 0) AS remaining, COALESCE(SUM(consumed_quantity), 0) AS consumed").
		Group("state").
		Scan(&rows).Error; err != nil {
		return stats, err
	}

	for _, row := range rows {
		stats.PurchasedQuantity += int(row.Quantity)
		stats.ConsumedQuantity += int(row.Consumed)
		switch row.State {
		case entities.LotStateInStock:
			stats.InStockLots = int(row.Lots)
			stats.InStockQuantity = int(row.Remaining)
		case entities.LotStateConsumed:
			stats.ConsumedLots = int(row.Lots)
		case entities.LotStateExpired:
			stats.ExpiredLots = int(row.Lots)
			stats.ExpiredQuantity = int(row.Remaining)
		}
	}
	return stats, nil
}
