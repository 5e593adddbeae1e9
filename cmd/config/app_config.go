package config

import (
	"Pantry-Ledger/internal/api/handlers"
	"Pantry-Ledger/internal/api/routes"
	"Pantry-Ledger/internal/middleware"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/internal/utils/mailing"
	"Pantry-Ledger/internal/utils/storage"
	"Pantry-Ledger/pkg/classifier"
	"Pantry-Ledger/pkg/importer"
	"Pantry-Ledger/pkg/inventory"
	"Pantry-Ledger/pkg/jwt"
	"Pantry-Ledger/pkg/notify"
	"Pantry-Ledger/pkg/receipt"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services holds the wired application. Notify and JWT are nil when mail or
// a JWT secret is not configured.
type Services struct {
	Inventory inventory.InventoryService
	Importer  importer.Importer
	Notify    notify.NotifyService
	JWT       jwt.JWTService
	Location  *time.Location
}

func NewServices(ctx context.Context, db *gorm.DB, log *zap.Logger) (*Services, error) {
	utils.InitValidator()
	loc := utils.GetLocation()

	// Repository
	inventoryRepository := inventory.NewInventoryRepository(db)
	cacheRepository := classifier.NewCacheRepository(db)

	// Classifier
	rules, err := classifier.LoadRules(utils.GetConfig("RULES_FILE"))
	if err != nil {
		return nil, err
	}
	lookup, err := classifier.NewGoogleLookup(classifier.GoogleConfig{
		APIKey:     utils.GetConfig("GOOGLE_API_KEY"),
		EngineID:   utils.GetConfig("GOOGLE_SEARCH_ENGINE_ID"),
		MaxRetries: utils.GetConfigInt("LOOKUP_MAX_RETRIES", 1),
	})
	switch {
	case errors.Is(err, classifier.ErrLookupNotConfigured):
		log.Info("external product lookup disabled")
		lookup = nil
	case err != nil:
		return nil, err
	}
	timeout := utils.GetConfigDuration("LOOKUP_TIMEOUT", classifier.DefaultLookupTimeout)
	productClassifier := classifier.NewClassifier(rules, cacheRepository, lookup, timeout, log.Named("classifier"))

	// utils
	var archiver importer.Archiver
	s3, err := storage.NewAwsS3(ctx, storage.LoadS3Config())
	switch {
	case errors.Is(err, storage.ErrBucketNotConfigured):
		log.Info("receipt archive disabled")
	case err != nil:
		return nil, err
	default:
		archiver = s3
	}

	var source importer.ReceiptSource
	if dir := utils.GetConfig("RECEIPT_DIR"); dir != "" {
		source = importer.NewFileSource(dir, utils.Validate)
	}

	// Service
	inventoryService := inventory.NewInventoryService(inventoryRepository, loc, time.Now, log.Named("inventory"))
	receiptImporter := importer.NewImporter(
		source,
		receipt.NewParser(log.Named("parser")),
		productClassifier,
		inventoryService,
		archiver,
		log.Named("importer"),
	)

	services := &Services{
		Inventory: inventoryService,
		Importer:  receiptImporter,
		Location:  loc,
	}

	if mailer, err := mailing.NewMailer(mailing.LoadMailConfig()); err == nil {
		services.Notify = notify.NewNotifyService(inventoryService, mailer, utils.GetConfig("NOTIFY_EMAIL"), log.Named("notify"))
	} else {
		log.Info("expiry digest mail disabled", zap.Error(err))
	}

	if jwtService, err := jwt.NewJWTService(utils.GetConfig("JWT_SECRET")); err == nil {
		services.JWT = jwtService
	}

	return services, nil
}

func NewApp(services *Services) (*fiber.App, error) {
	if services.JWT == nil {
		return nil, fmt.Errorf("serve: %w", jwt.ErrMissingSecret)
	}

	app := fiber.New(fiber.Config{
		AppName: "pantry-ledger",
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   services.Location.String(),
		Output:     os.Stdout,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 1 * time.Second,
	}))

	// Handler
	inventoryHandler := handlers.NewInventoryHandler(services.Inventory, validator)
	receiptHandler := handlers.NewReceiptHandler(services.Importer, validator, services.Location)

	// routes
	routesConfig := routes.Config{
		App:              app,
		InventoryHandler: inventoryHandler,
		ReceiptHandler:   receiptHandler,
		Middleware:       middlewares,
		JWTService:       services.JWT,
	}
	routesConfig.Setup()
	return app, nil
}
