package handlers

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/api/presenters"
	"Pantry-Ledger/pkg/importer"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptHandler interface {
		ImportReceipt(c *fiber.Ctx) error
		ImportRange(c *fiber.Ctx) error
	}

	receiptHandler struct {
		importer  importer.Importer
		validator *validator.Validate
		loc       *time.Location
	}
)

func NewReceiptHandler(receiptImporter importer.Importer, validator *validator.Validate, loc *time.Location) ReceiptHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &receiptHandler{
		importer:  receiptImporter,
		validator: validator,
		loc:       loc,
	}
}

// ImportReceipt imports a posted receipt detail. A receipt that is already
// in the ledger is reported with 200 and status "duplicate".
func (h *receiptHandler) ImportReceipt(c *fiber.Ctx) error {
	req := new(domain.ReceiptDetail)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedImportReceipt, err)
	}

	res := h.importer.ImportDetail(c.Context(), *req)
	switch res.Status {
	case domain.ImportStatusFailed:
		return presenters.ErrorResponse(c, fiber.StatusUnprocessableEntity, domain.MessageFailedImportReceipt, errors.New(res.Error))
	case domain.ImportStatusDuplicate:
		return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessDuplicateReceipt)
	case domain.ImportStatusImported:
		return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessImportReceipt)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessImportReceipt)
}

func (h *receiptHandler) ImportRange(c *fiber.Ctx) error {
	req := new(domain.ImportRangeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedImportRange, err)
	}

	from, err := parseDay(req.From, h.loc)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedImportRange, err)
	}
	to, err := parseDay(req.To, h.loc)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedImportRange, err)
	}

	res, err := h.importer.ImportRange(c.Context(), from, to)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrNoSource):
			return presenters.ErrorResponse(c, fiber.StatusServiceUnavailable, domain.MessageFailedImportRange, err)
		case errors.Is(err, domain.ErrInvalidDateSpan):
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedImportRange, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedImportRange, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessImportRange)
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, s, loc)
}
