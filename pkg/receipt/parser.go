package receipt

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type (
	Parser interface {
		Parse(detail domain.ReceiptDetail) domain.ParsedReceipt
	}

	parser struct {
		logger *zap.Logger
	}
)

func NewParser(logger *zap.Logger) Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &parser{logger: logger}
}

var (
	// name, two or more spaces, optional yen sign, price, optional tax marker
	itemLine = regexp.MustCompile(`^(.+?)[\s\x{3000}]{2,}[¥￥\\]?([0-9０-９][0-9０-９,，]{0,9})[※＊*]?[\s\x{3000}]*$`)

	discountLine = regexp.MustCompile(`(?:値引|割引|ﾜﾘﾋﾞｷ|ﾈﾋﾞｷ|ｸｰﾎﾟﾝ|クーポン).*?[-－ー−][\s\x{3000}]*[¥￥\\]?([0-9０-９][0-9０-９,，]*)`)

	// totals, tender and tax lines look like items but are not
	skipWords = []string{
		"合計", "小計", "お預り", "お預かり", "お釣", "おつり", "税込", "税抜",
		"ポイント", "ﾎﾟｲﾝﾄ", "WAON", "ワオン", "ﾜｵﾝ", "現金", "クレジット", "ｸﾚｼﾞｯﾄ",
		"お買上", "点数", "外税", "内税", "非課税", "対象額", "消費税",
	}
)

// Parse extracts purchase lines from a receipt. A structured payload, when it
// carries sale entries, is authoritative and the printed lines are not read.
func (p *parser) Parse(detail domain.ReceiptDetail) domain.ParsedReceipt {
	out := domain.ParsedReceipt{
		ReceiptID:   detail.ReceiptID,
		StoreName:   detail.StoreName,
		StoreCode:   detail.StoreCode,
		PurchasedAt: detail.PurchasedAt,
	}

	if len(detail.Raw) > 0 {
		items, ok := parseStructured(detail.Raw)
		if ok {
			out.Structured = true
			out.Items = items
			return out
		}
	}

	out.Items = p.parseLines(detail.ReceiptID, detail.Lines)
	return out
}

func (p *parser) parseLines(receiptID string, lines []string) []domain.PurchaseLineItem {
	items := make([]domain.PurchaseLineItem, 0)

	for i, tok := range Tokenize(lines) {
		if tok.Kind != TokenText {
			continue
		}
		text := strings.TrimRight(tok.Text, " \t　")
		if strings.TrimSpace(text) == "" {
			continue
		}

		if m := discountLine.FindStringSubmatch(text); m != nil {
			amount, err := toInt(m[1])
			if err != nil || len(items) == 0 {
				continue
			}
			items[len(items)-1].Discount += abs(amount)
			continue
		}

		m := itemLine.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		name := strings.TrimSpace(m[1])
		price, err := toInt(m[2])
		if err != nil || price <= 0 {
			p.logger.Debug("skipping malformed item line",
				zap.String("receipt_id", receiptID),
				zap.Int("line", i),
				zap.String("text", text))
			continue
		}
		if name == "" || isSkipLine(name) {
			continue
		}

		items = append(items, domain.PurchaseLineItem{
			Name:     name,
			Price:    price,
			Quantity: 1,
		})
	}

	return items
}

func isSkipLine(name string) bool {
	for _, w := range skipWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// toInt parses an amount that may use full-width digits, thousands
// separators, a currency sign or a decimal part.
func toInt(s string) (int, error) {
	s = utils.NarrowDigits(s)
	s = strings.NewReplacer(",", "", "¥", "", "\\", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("amount out of range: %q", s)
	}
	return int(f), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
