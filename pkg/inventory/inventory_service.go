package inventory

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/entities"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/pkg/metrics"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	InventoryService interface {
		ImportReceipt(ctx context.Context, receipt domain.ParsedReceipt, items []domain.ClassifiedItem) (int, error)
		IsReceiptImported(ctx context.Context, receiptID string) (bool, error)
		GetInStockItems(ctx context.Context) ([]domain.StockItem, error)
		GetExpiringSoon(ctx context.Context, days int) ([]domain.ExpiringItem, error)
		MarkConsumed(ctx context.Context, productName string, count int) (domain.ConsumeResult, error)
		ExpireOverdue(ctx context.Context) (int, error)
		Stats(ctx context.Context) (domain.InventoryStats, error)
	}

	inventoryService struct {
		inventoryRepository InventoryRepository
		location            *time.Location
		now                 func() time.Time
		logger              *zap.Logger
	}
)

// NewInventoryService creates the ledger service. Calendar dates (expiry,
// "today") are taken in loc; now may be nil to use the wall clock.
func NewInventoryService(inventoryRepository InventoryRepository, loc *time.Location, now func() time.Time, logger *zap.Logger) InventoryService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{
		inventoryRepository: inventoryRepository,
		location:            loc,
		now:                 now,
		logger:              logger,
	}
}

func (s *inventoryService) today() time.Time {
	return domain.DateOf(s.now(), s.location)
}

// ImportReceipt writes every item of a receipt in one transaction and
// returns the number of purchase lines written. A receipt that is already
// in the ledger yields ErrReceiptAlreadyImported and writes nothing.
func (s *inventoryService) ImportReceipt(ctx context.Context, receipt domain.ParsedReceipt, items []domain.ClassifiedItem) (int, error) {
	if receipt.ReceiptID == "" {
		return 0, domain.ErrInvalidReceiptID
	}

	inserted := 0
	err := s.inventoryRepository.Transaction(ctx, func(repo InventoryRepository) error {
		imported, err := repo.IsReceiptImported(ctx, receipt.ReceiptID)
		if err != nil {
			return err
		}
		if imported {
			return ErrReceiptAlreadyImported
		}

		products := make(map[string]*entities.Product)
		for i, item := range items {
			name := item.NormalizedName
			if name == "" {
				name = utils.NormalizeName(item.Name)
			}

			product, ok := products[name]
			if !ok {
				product, err = upsertProduct(ctx, repo, name, item)
				if err != nil {
					return err
				}
				products[name] = product
			}

			purchase := &entities.Purchase{
				ID:          uuid.New(),
				ProductID:   product.ID,
				ReceiptID:   receipt.ReceiptID,
				LineNo:      i + 1,
				StoreName:   receipt.StoreName,
				StoreCode:   receipt.StoreCode,
				Barcode:     item.Barcode,
				Price:       nonNegative(item.Price),
				Quantity:    atLeastOne(item.Quantity),
				Discount:    nonNegative(item.Discount),
				PurchasedAt: receipt.PurchasedAt.UTC(),
			}
			if err := repo.CreatePurchase(ctx, purchase); err != nil {
				return err
			}

			lot := &entities.InventoryLot{
				ID:                uuid.New(),
				PurchaseID:        purchase.ID,
				Quantity:          purchase.Quantity,
				RemainingQuantity: purchase.Quantity,
				State:             entities.LotStateInStock,
				ExpiryDate:        lotInfo(item.Info, product).ExpiryDate(receipt.PurchasedAt, s.location),
			}
			if err := repo.CreateLot(ctx, lot); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrReceiptAlreadyImported) {
			return 0, err
		}
		s.logger.Error("receipt import rolled back",
			zap.String("receipt_id", receipt.ReceiptID),
			zap.Error(err))
		return 0, &ImportError{ReceiptID: receipt.ReceiptID, Err: err}
	}
	return inserted, nil
}

// upsertProduct creates the product master or refreshes it when the new
// classification is at least as complete as the stored one.
func upsertProduct(ctx context.Context, repo InventoryRepository, name string, item domain.ClassifiedItem) (*entities.Product, error) {
	existing, err := repo.GetProductByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
		return nil, err
	}

	if existing == nil {
		product := &entities.Product{ID: uuid.New(), Name: name, DisplayName: item.Name}
		applyInfo(product, item.Info)
		if err := repo.CreateProduct(ctx, product); err != nil {
			return nil, err
		}
		return product, nil
	}

	if item.Info.Completeness() >= productInfo(existing).Completeness() {
		applyInfo(existing, item.Info)
		if item.Name != "" {
			existing.DisplayName = item.Name
		}
		if err := repo.UpdateProduct(ctx, existing); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

func applyInfo(p *entities.Product, info domain.ProductInfo) {
	storage := info.StorageType
	if !storage.Valid() {
		storage = domain.StorageAmbient
	}
	category := info.Category
	if category == "" {
		category = domain.UnknownCategory
	}

	p.Category = category
	p.Subcategory = info.Subcategory
	p.ContentAmount = info.ContentAmount
	p.ContentUnit = info.ContentUnit
	p.Manufacturer = info.Manufacturer
	p.StorageType = string(storage)
	p.ShelfLifeDays = info.ShelfLifeDays
	p.IsFood = info.IsFood
}

// lotInfo is the info a new lot's expiry is computed from: the item's own
// classification, or the product master when the item only got the default.
func lotInfo(info domain.ProductInfo, p *entities.Product) domain.ProductInfo {
	if info.IsUnknown() {
		return productInfo(p)
	}
	return info
}

func productInfo(p *entities.Product) domain.ProductInfo {
	return domain.ProductInfo{
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		ContentAmount: p.ContentAmount,
		ContentUnit:   p.ContentUnit,
		Manufacturer:  p.Manufacturer,
		StorageType:   domain.StorageType(p.StorageType),
		ShelfLifeDays: p.ShelfLifeDays,
		IsFood:        p.IsFood,
	}
}

func (s *inventoryService) IsReceiptImported(ctx context.Context, receiptID string) (bool, error) {
	return s.inventoryRepository.IsReceiptImported(ctx, receiptID)
}

func (s *inventoryService) GetInStockItems(ctx context.Context) ([]domain.StockItem, error) {
	lots, err := s.inventoryRepository.GetInStockLots(ctx)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*domain.StockItem)
	for _, lot := range lots {
		if lot.Purchase == nil || lot.Purchase.Product == nil {
			continue
		}
		p := lot.Purchase.Product

		item, ok := byProduct[p.Name]
		if !ok {
			item = &domain.StockItem{
				Name:        p.Name,
				DisplayName: p.DisplayName,
				Category:    p.Category,
				Subcategory: p.Subcategory,
				StorageType: domain.StorageType(p.StorageType),
				IsFood:      p.IsFood,
			}
			byProduct[p.Name] = item
		}
		item.TotalQuantity += lot.RemainingQuantity
		if lot.Purchase.PurchasedAt.After(item.LastPurchased) {
			item.LastPurchased = lot.Purchase.PurchasedAt
		}
	}

	items := make([]domain.StockItem, 0, len(byProduct))
	for _, item := range byProduct {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// GetExpiringSoon lists in-stock lots expiring on or before today+days,
// soonest first. Overdue lots not yet swept appear with negative days.
func (s *inventoryService) GetExpiringSoon(ctx context.Context, days int) ([]domain.ExpiringItem, error) {
	if days < 0 {
		return nil, domain.ErrInvalidDays
	}

	today := s.today()
	lots, err := s.inventoryRepository.GetExpiringLots(ctx, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	items := make([]domain.ExpiringItem, 0, len(lots))
	for _, lot := range lots {
		if lot.ExpiryDate == nil || lot.Purchase == nil || lot.Purchase.Product == nil {
			continue
		}
		expiry := lot.ExpiryDate.UTC()
		items = append(items, domain.ExpiringItem{
			LotID:         lot.ID.String(),
			Name:          lot.Purchase.Product.Name,
			Quantity:      lot.RemainingQuantity,
			ExpiryDate:    expiry,
			DaysRemaining: int(expiry.Sub(today).Hours() / 24),
			StorageType:   domain.StorageType(lot.Purchase.Product.StorageType),
			PurchasedAt:   lot.Purchase.PurchasedAt,
		})
	}
	return items, nil
}

// MarkConsumed takes count units of a product, oldest expiry first. Asking
// for more than is in stock consumes what there is and reports the
// shortfall.
func (s *inventoryService) MarkConsumed(ctx context.Context, productName string, count int) (domain.ConsumeResult, error) {
	if count <= 0 {
		return domain.ConsumeResult{}, domain.ErrInvalidQuantity
	}

	name := utils.NormalizeName(productName)
	result := domain.ConsumeResult{ProductName: name, Requested: count}

	err := s.inventoryRepository.Transaction(ctx, func(repo InventoryRepository) error {
		product, err := repo.GetProductByName(ctx, name)
		if errors.Is(err, domain.ErrProductNotFound) {
			result.Shortfall = count
			return nil
		}
		if err != nil {
			return err
		}

		lots, err := repo.GetConsumableLots(ctx, product.ID.String())
		if err != nil {
			return err
		}

		left := count
		for _, lot := range lots {
			if left == 0 {
				break
			}
			take := min(left, lot.RemainingQuantity)
			lot.RemainingQuantity -= take
			lot.ConsumedQuantity += take
			if lot.RemainingQuantity == 0 {
				lot.State = entities.LotStateConsumed
				result.LotsDepleted++
			}
			if err := repo.UpdateLotQuantities(ctx, lot); err != nil {
				return err
			}
			left -= take
		}

		result.Consumed = count - left
		result.Shortfall = left
		return nil
	})
	if err != nil {
		return domain.ConsumeResult{}, err
	}

	metrics.LotsConsumed.Add(float64(result.Consumed))
	if result.Shortfall > 0 {
		s.logger.Info("consumption exceeded stock",
			zap.String("product", name),
			zap.Int("requested", count),
			zap.Int("shortfall", result.Shortfall))
	}
	return result, nil
}

// ExpireOverdue moves in-stock lots whose expiry date is before today to
// expired and returns how many were moved.
func (s *inventoryService) ExpireOverdue(ctx context.Context) (int, error) {
	var expired int64
	err := s.inventoryRepository.Transaction(ctx, func(repo InventoryRepository) error {
		n, err := repo.ExpireLotsBefore(ctx, s.today())
		expired = n
		return err
	})
	if err != nil {
		return 0, err
	}

	metrics.LotsExpired.Add(float64(expired))
	return int(expired), nil
}

func (s *inventoryService) Stats(ctx context.Context) (domain.InventoryStats, error) {
	return s.inventoryRepository.GetStats(ctx)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
