package handlers

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/api/presenters"
	"Pantry-Ledger/pkg/inventory"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const defaultExpiringDays = 3

type (
	InventoryHandler interface {
		GetStock(c *fiber.Ctx) error
		GetExpiring(c *fiber.Ctx) error
		MarkConsumed(c *fiber.Ctx) error
		ExpireOverdue(c *fiber.Ctx) error
		GetStats(c *fiber.Ctx) error
	}

	inventoryHandler struct {
		inventoryService inventory.InventoryService
		validator        *validator.Validate
	}
)

func NewInventoryHandler(inventoryService inventory.InventoryService, validator *validator.Validate) InventoryHandler {
	return &inventoryHandler{
		inventoryService: inventoryService,
		validator:        validator,
	}
}

func (h *inventoryHandler) GetStock(c *fiber.Ctx) error {
	res, err := h.inventoryService.GetInStockItems(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetStock, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStock)
}

func (h *inventoryHandler) GetExpiring(c *fiber.Ctx) error {
	query := &domain.ExpiringQuery{Days: defaultExpiringDays}

	if err := c.QueryParser(query); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetExpiring, err)
	}

	if err := h.validator.Struct(query); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetExpiring, err)
	}

	res, err := h.inventoryService.GetExpiringSoon(c.Context(), query.Days)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetExpiring, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetExpiring)
}

func (h *inventoryHandler) MarkConsumed(c *fiber.Ctx) error {
	req := new(domain.ConsumeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedMarkConsumed, err)
	}

	res, err := h.inventoryService.MarkConsumed(c.Context(), req.ProductName, req.Count)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedMarkConsumed, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedMarkConsumed, err)
	}

	if res.Shortfall > 0 {
		return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessPartialConsumed)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessMarkConsumed)
}

func (h *inventoryHandler) ExpireOverdue(c *fiber.Ctx) error {
	n, err := h.inventoryService.ExpireOverdue(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedExpireOverdue, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"expired": n}, fiber.StatusOK, domain.MessageSuccessExpireOverdue)
}

func (h *inventoryHandler) GetStats(c *fiber.Ctx) error {
	res, err := h.inventoryService.Stats(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetStats, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStats)
}
