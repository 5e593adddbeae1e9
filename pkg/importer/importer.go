package importer

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/pkg/classifier"
	"Pantry-Ledger/pkg/inventory"
	"Pantry-Ledger/pkg/metrics"
	"Pantry-Ledger/pkg/receipt"
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

type (
	// Archiver keeps a copy of the raw receipt after a successful import.
	Archiver interface {
		ArchiveReceipt(ctx context.Context, receiptID string, purchasedAt time.Time, payload []byte) (string, error)
	}

	Importer interface {
		ImportRange(ctx context.Context, from, to time.Time) (domain.ImportSummary, error)
		ImportReceipt(ctx context.Context, receiptID string) domain.ReceiptImportResult
		ImportDetail(ctx context.Context, detail domain.ReceiptDetail) domain.ReceiptImportResult
	}

	importer struct {
		source     ReceiptSource
		parser     receipt.Parser
		classifier classifier.Classifier
		inventory  inventory.InventoryService
		archiver   Archiver
		logger     *zap.Logger
	}
)

// NewImporter wires the pipeline. source and archiver may be nil: without a
// source only ImportDetail works, without an archiver nothing is archived.
func NewImporter(
	source ReceiptSource,
	parser receipt.Parser,
	productClassifier classifier.Classifier,
	inventoryService inventory.InventoryService,
	archiver Archiver,
	logger *zap.Logger,
) Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &importer{
		source:     source,
		parser:     parser,
		classifier: productClassifier,
		inventory:  inventoryService,
		archiver:   archiver,
		logger:     logger,
	}
}

var ErrNoSource = errors.New("no receipt source configured")

// ImportRange imports every receipt the source lists for [from, to). A
// failing receipt is reported in the summary and does not stop the run.
func (i *importer) ImportRange(ctx context.Context, from, to time.Time) (domain.ImportSummary, error) {
	summary := domain.ImportSummary{Receipts: []domain.ReceiptImportResult{}}
	if i.source == nil {
		return summary, ErrNoSource
	}

	receipts, err := i.source.ListReceipts(ctx, from, to)
	if err != nil {
		return summary, err
	}

	for _, r := range receipts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res := i.ImportReceipt(ctx, r.ReceiptID)
		if res.StoreName == "" {
			res.StoreName = r.StoreName
		}
		if res.PurchasedAt.IsZero() {
			res.PurchasedAt = r.PurchasedAt
		}
		summary.Add(res)
	}

	i.logger.Info("import finished",
		zap.Int("imported", summary.Imported),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("empty", summary.Empty),
		zap.Int("failed", summary.Failed),
		zap.Int("items", summary.ItemsInserted))
	return summary, nil
}

// ImportReceipt checks for a duplicate before fetching the detail.
func (i *importer) ImportReceipt(ctx context.Context, receiptID string) domain.ReceiptImportResult {
	res := domain.ReceiptImportResult{ReceiptID: receiptID}

	if i.source == nil {
		return i.finish(res, domain.ImportStatusFailed, ErrNoSource)
	}

	imported, err := i.inventory.IsReceiptImported(ctx, receiptID)
	if err != nil {
		return i.finish(res, domain.ImportStatusFailed, err)
	}
	if imported {
		return i.finish(res, domain.ImportStatusDuplicate, nil)
	}

	detail, err := i.source.GetReceiptDetail(ctx, receiptID)
	if err != nil {
		return i.finish(res, domain.ImportStatusFailed, err)
	}
	return i.ImportDetail(ctx, detail)
}

func (i *importer) ImportDetail(ctx context.Context, detail domain.ReceiptDetail) domain.ReceiptImportResult {
	res := domain.ReceiptImportResult{
		ReceiptID:   detail.ReceiptID,
		StoreName:   detail.StoreName,
		PurchasedAt: detail.PurchasedAt,
	}
	if detail.ReceiptID == "" {
		return i.finish(res, domain.ImportStatusFailed, domain.ErrInvalidReceiptID)
	}

	imported, err := i.inventory.IsReceiptImported(ctx, detail.ReceiptID)
	if err != nil {
		return i.finish(res, domain.ImportStatusFailed, err)
	}
	if imported {
		return i.finish(res, domain.ImportStatusDuplicate, nil)
	}

	parsed := i.parser.Parse(detail)
	if len(parsed.Items) == 0 {
		return i.finish(res, domain.ImportStatusEmpty, nil)
	}

	res.Items = i.classify(ctx, parsed.Items)
	for _, item := range res.Items {
		if item.Info.IsFood {
			res.FoodItems++
		} else {
			res.NonFoodItems++
		}
	}

	n, err := i.inventory.ImportReceipt(ctx, parsed, res.Items)
	if err != nil {
		res.FoodItems, res.NonFoodItems = 0, 0
		if errors.Is(err, inventory.ErrReceiptAlreadyImported) {
			return i.finish(res, domain.ImportStatusDuplicate, nil)
		}
		return i.finish(res, domain.ImportStatusFailed, err)
	}
	res.Inserted = n

	i.archive(ctx, detail)
	return i.finish(res, domain.ImportStatusImported, nil)
}

// classify resolves each distinct normalized name once per receipt.
func (i *importer) classify(ctx context.Context, items []domain.PurchaseLineItem) []domain.ClassifiedItem {
	seen := make(map[string]classifier.Outcome)
	out := make([]domain.ClassifiedItem, 0, len(items))

	for _, item := range items {
		key := utils.NormalizeName(item.Name)
		outcome, ok := seen[key]
		if !ok {
			outcome = i.classifier.Classify(ctx, item.Name)
			seen[key] = outcome
		}
		out = append(out, domain.ClassifiedItem{
			PurchaseLineItem: item,
			NormalizedName:   outcome.Name,
			Info:             outcome.Info,
			Source:           string(outcome.Stage),
		})
	}
	return out
}

func (i *importer) archive(ctx context.Context, detail domain.ReceiptDetail) {
	if i.archiver == nil {
		return
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		i.logger.Warn("encode receipt for archive", zap.String("receipt_id", detail.ReceiptID), zap.Error(err))
		return
	}
	if _, err := i.archiver.ArchiveReceipt(ctx, detail.ReceiptID, detail.PurchasedAt, payload); err != nil {
		i.logger.Warn("archive receipt", zap.String("receipt_id", detail.ReceiptID), zap.Error(err))
	}
}

func (i *importer) finish(res domain.ReceiptImportResult, status domain.ImportStatus, err error) domain.ReceiptImportResult {
	res.Status = status
	if err != nil {
		res.Error = err.Error()
		i.logger.Warn("receipt import failed",
			zap.String("receipt_id", res.ReceiptID),
			zap.Error(err))
	}
	metrics.ReceiptsProcessed.WithLabelValues(string(status)).Inc()
	if res.Inserted > 0 {
		metrics.ItemsInserted.Add(float64(res.Inserted))
	}
	return res
}
