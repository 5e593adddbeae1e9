package migration

import (
	"Pantry-Ledger/entities"
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	}

	if err := db.AutoMigrate(&entities.Product{}); err != nil {
		return fmt.Errorf("migrating products: %w", err)
	}
	if err := db.AutoMigrate(&entities.Purchase{}); err != nil {
		return fmt.Errorf("migrating purchases: %w", err)
	}
	if err := db.AutoMigrate(&entities.InventoryLot{}); err != nil {
		return fmt.Errorf("migrating inventory: %w", err)
	}
	if err := db.AutoMigrate(&entities.SearchCache{}); err != nil {
		return fmt.Errorf("migrating search cache: %w", err)
	}

	return nil
}
