package routes

import (
	"Pantry-Ledger/internal/api/handlers"
	"Pantry-Ledger/internal/middleware"
	"Pantry-Ledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	App              *fiber.App
	InventoryHandler handlers.InventoryHandler
	ReceiptHandler   handlers.ReceiptHandler
	Middleware       middleware.Middleware
	JWTService       jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Receipts()
	c.Inventory()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.AuthMiddleware(c.JWTService))
	{
		receipts.Post("", c.ReceiptHandler.ImportReceipt)
		receipts.Post("/import", c.ReceiptHandler.ImportRange)
	}
}

func (c *Config) Inventory() {
	inventory := c.App.Group("/api/v1/inventory", c.Middleware.AuthMiddleware(c.JWTService))
	{
		inventory.Get("", c.InventoryHandler.GetStock)
		inventory.Get("/expiring", c.InventoryHandler.GetExpiring)
		inventory.Get("/stats", c.InventoryHandler.GetStats)
		inventory.Post("/consume", c.InventoryHandler.MarkConsumed)
		inventory.Post("/expire", c.InventoryHandler.ExpireOverdue)
	}
}
