package importer

import (
	"Pantry-Ledger/domain"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReceiptSource lists and fetches receipts from wherever they are kept.
type ReceiptSource interface {
	ListReceipts(ctx context.Context, from, to time.Time) ([]domain.ReceiptSummary, error)
	GetReceiptDetail(ctx context.Context, receiptID string) (domain.ReceiptDetail, error)
}

type fileSource struct {
	dir      string
	validate *validator.Validate
}

// NewFileSource reads receipt details dumped as one JSON file per receipt.
// Files are named <receipt id>.json; other files are ignored.
func NewFileSource(dir string, validate *validator.Validate) ReceiptSource {
	if validate == nil {
		validate = validator.New()
	}
	return &fileSource{dir: dir, validate: validate}
}

// ListReceipts returns receipts purchased in [from, to), oldest first. A zero
// bound is open. Files that cannot be read are listed without a date
// regardless of the range.
func (s *fileSource) ListReceipts(ctx context.Context, from, to time.Time) ([]domain.ReceiptSummary, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, domain.ErrInvalidDateSpan
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read receipt dir: %w", err)
	}

	summaries := make([]domain.ReceiptSummary, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		detail, err := s.readFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// listed undated so the import reports it as failed
			summaries = append(summaries, domain.ReceiptSummary{
				ReceiptID: strings.TrimSuffix(entry.Name(), ".json"),
			})
			continue
		}
		if !from.IsZero() && detail.PurchasedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !detail.PurchasedAt.Before(to) {
			continue
		}
		summaries = append(summaries, detail.Summary())
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].PurchasedAt.Before(summaries[j].PurchasedAt)
	})
	return summaries, nil
}

func (s *fileSource) GetReceiptDetail(ctx context.Context, receiptID string) (domain.ReceiptDetail, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReceiptDetail{}, err
	}
	if receiptID == "" || strings.ContainsAny(receiptID, `/\`) || receiptID == "." || receiptID == ".." {
		return domain.ReceiptDetail{}, domain.ErrInvalidReceiptID
	}

	detail, err := s.readFile(filepath.Join(s.dir, receiptID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ReceiptDetail{}, domain.ErrReceiptNotFound
		}
		return domain.ReceiptDetail{}, err
	}
	if detail.ReceiptID != receiptID {
		return domain.ReceiptDetail{}, fmt.Errorf("%w: file holds receipt %q", domain.ErrReceiptNotFound, detail.ReceiptID)
	}
	return detail, nil
}

func (s *fileSource) readFile(path string) (domain.ReceiptDetail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ReceiptDetail{}, err
	}

	var detail domain.ReceiptDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return domain.ReceiptDetail{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if err := s.validate.Struct(detail); err != nil {
		return domain.ReceiptDetail{}, fmt.Errorf("invalid receipt %s: %w", filepath.Base(path), err)
	}
	return detail, nil
}
