package importer

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils/testdb"
	"Pantry-Ledger/pkg/classifier"
	"Pantry-Ledger/pkg/inventory"
	"Pantry-Ledger/pkg/receipt"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*60*60)

func writeReceipt(t *testing.T, dir string, d domain.ReceiptDetail) {
	t.Helper()
	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, d.ReceiptID+".json"), data, 0o600))
}

func textReceipt() domain.ReceiptDetail {
	return domain.ReceiptDetail{
		ReceiptID:   "R-100",
		StoreName:   "イオン 幕張店",
		PurchasedAt: time.Date(2026, 2, 12, 18, 30, 0, 0, jst),
		Lines: []string{
			"PrintBitmap(1, 'logo.bmp')",
			"明治おいしい牛乳          ￥２３８",
			"値引                     -50",
			"ﾈﾋﾟｱ ﾃｨｯｼｭ 5P            ¥398",
			"明治おいしい牛乳          ￥２３８",
			"PrintDouble('合計          ¥824', 2)",
		},
	}
}

func structuredReceipt() domain.ReceiptDetail {
	return domain.ReceiptDetail{
		ReceiptID:   "R-101",
		StoreName:   "イオン 幕張店",
		PurchasedAt: time.Date(2026, 2, 13, 10, 0, 0, 0, jst),
		Lines:       []string{"ﾊﾞﾅﾅ        ¥198"},
		Raw: json.RawMessage(`{"results": {"DigitalReceipt": {"Transaction": {"RetailTransaction": {"LineItem": [
			{"Sale": {"ItemDescription": {"#Value": "キッコーマン豆乳"}, "ExtendedAmount": {"#Value": "396"}, "Quantity": {"#Value": "2"}}}
		]}}}}}`),
	}
}

func emptyReceipt() domain.ReceiptDetail {
	return domain.ReceiptDetail{
		ReceiptID:   "R-102",
		StoreName:   "イオン 幕張店",
		PurchasedAt: time.Date(2026, 2, 14, 9, 0, 0, 0, jst),
		Lines:       []string{"ご来店ありがとうございます"},
	}
}

type countingSource struct {
	ReceiptSource
	mu      sync.Mutex
	fetches map[string]int
	fail    map[string]error
}

func (s *countingSource) GetReceiptDetail(ctx context.Context, id string) (domain.ReceiptDetail, error) {
	s.mu.Lock()
	if s.fetches == nil {
		s.fetches = make(map[string]int)
	}
	s.fetches[id]++
	err := s.fail[id]
	s.mu.Unlock()
	if err != nil {
		return domain.ReceiptDetail{}, err
	}
	return s.ReceiptSource.GetReceiptDetail(ctx, id)
}

type countingClassifier struct {
	classifier.Classifier
	calls map[string]int
}

func (c *countingClassifier) Classify(ctx context.Context, name string) classifier.Outcome {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
	return c.Classifier.Classify(ctx, name)
}

type fakeArchiver struct {
	archived []string
	err      error
}

func (a *fakeArchiver) ArchiveReceipt(_ context.Context, id string, _ time.Time, payload []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.archived = append(a.archived, id)
	return "s3://" + id, nil
}

type fixture struct {
	dir        string
	source     *countingSource
	classifier *countingClassifier
	inventory  inventory.InventoryService
	archiver   *fakeArchiver
	importer   Importer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		dir:        dir,
		source:     &countingSource{ReceiptSource: NewFileSource(dir, nil)},
		classifier: &countingClassifier{Classifier: classifier.NewClassifier(nil, nil, nil, 0, nil)},
		inventory:  inventory.NewInventoryService(inventory.NewInventoryRepository(testdb.Open(t)), jst, nil, nil),
		archiver:   &fakeArchiver{},
	}
	f.importer = NewImporter(f.source, receipt.NewParser(nil), f.classifier, f.inventory, f.archiver, nil)
	return f
}

func (f *fixture) writeAll(t *testing.T) {
	writeReceipt(t, f.dir, textReceipt())
	writeReceipt(t, f.dir, structuredReceipt())
	writeReceipt(t, f.dir, emptyReceipt())
}

func TestImporter_ImportRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.writeAll(t)

	summary, err := f.importer.ImportRange(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Empty)
	assert.Zero(t, summary.Duplicates)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 4, summary.ItemsInserted)
	assert.Equal(t, 3, summary.FoodItems)
	assert.Equal(t, 1, summary.NonFoodItems)
	require.Len(t, summary.Receipts, 3)
	assert.Equal(t, "R-100", summary.Receipts[0].ReceiptID)

	stats, err := f.inventory.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Receipts)
	assert.Equal(t, 5, stats.PurchasedQuantity)
	assert.Equal(t, []string{"R-100", "R-101"}, f.archiver.archived)
}

func TestImporter_BrokenFileDoesNotStopRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	writeReceipt(t, f.dir, textReceipt())
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "R-999.json"), []byte("{broken"), 0o600))

	summary, err := f.importer.ImportRange(ctx, time.Date(2026, 2, 1, 0, 0, 0, 0, jst), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Receipts, 2)
	assert.Equal(t, "R-999", summary.Receipts[0].ReceiptID)
	assert.Equal(t, domain.ImportStatusFailed, summary.Receipts[0].Status)
	assert.Contains(t, summary.Receipts[0].Error, "decode R-999.json")
	assert.Equal(t, domain.ImportStatusImported, summary.Receipts[1].Status)
}

func TestImporter_RerunSkipsImportedReceiptsBeforeFetching(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.writeAll(t)

	_, err := f.importer.ImportRange(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	before, err := f.inventory.Stats(ctx)
	require.NoError(t, err)

	summary, err := f.importer.ImportRange(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Duplicates)
	assert.Equal(t, 1, summary.Empty)
	assert.Zero(t, summary.ItemsInserted)

	assert.Equal(t, 1, f.source.fetches["R-100"])
	assert.Equal(t, 1, f.source.fetches["R-101"])
	assert.Equal(t, 2, f.source.fetches["R-102"])

	after, err := f.inventory.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImporter_ClassifiesEachNameOnce(t *testing.T) {
	f := newFixture(t)

	res := f.importer.ImportDetail(context.Background(), textReceipt())
	require.Equal(t, domain.ImportStatusImported, res.Status, res.Error)
	assert.Equal(t, 3, res.Inserted)

	assert.Equal(t, 1, f.classifier.calls["明治おいしい牛乳"])
	assert.Equal(t, 1, f.classifier.calls["ﾈﾋﾟｱ ﾃｨｯｼｭ 5P"])

	require.Len(t, res.Items, 3)
	assert.Equal(t, 50, res.Items[0].Discount)
	assert.Equal(t, "dairy", res.Items[0].Info.Category)
	assert.Equal(t, string(classifier.StageKeyword), res.Items[0].Source)
	assert.False(t, res.Items[1].Info.IsFood)
	assert.Equal(t, "ネピア ティッシュ 5p", res.Items[1].NormalizedName)
}

func TestImporter_StructuredPayloadWins(t *testing.T) {
	f := newFixture(t)

	res := f.importer.ImportDetail(context.Background(), structuredReceipt())
	require.Equal(t, domain.ImportStatusImported, res.Status)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "キッコーマン豆乳", res.Items[0].Name)
	assert.Equal(t, 198, res.Items[0].Price)
	assert.Equal(t, 2, res.Items[0].Quantity)
}

func TestImporter_DateRange(t *testing.T) {
	f := newFixture(t)
	f.writeAll(t)

	from := time.Date(2026, 2, 13, 0, 0, 0, 0, jst)
	to := time.Date(2026, 2, 14, 0, 0, 0, 0, jst)
	summary, err := f.importer.ImportRange(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, summary.Receipts, 1)
	assert.Equal(t, "R-101", summary.Receipts[0].ReceiptID)
}

func TestImporter_FetchFailureDoesNotStopRun(t *testing.T) {
	f := newFixture(t)
	f.writeAll(t)
	f.source.fail = map[string]error{"R-100": errors.New("connection reset")}

	summary, err := f.importer.ImportRange(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, domain.ImportStatusFailed, summary.Receipts[0].Status)
	assert.Contains(t, summary.Receipts[0].Error, "connection reset")
	assert.Equal(t, "イオン 幕張店", summary.Receipts[0].StoreName)
}

func TestImporter_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.archiver.err = errors.New("access denied")

	res := f.importer.ImportDetail(context.Background(), structuredReceipt())

	assert.Equal(t, domain.ImportStatusImported, res.Status)
	assert.Empty(t, res.Error)
}

func TestImporter_MissingReceiptID(t *testing.T) {
	f := newFixture(t)

	res := f.importer.ImportDetail(context.Background(), domain.ReceiptDetail{Lines: []string{"牛乳    ¥198"}})
	assert.Equal(t, domain.ImportStatusFailed, res.Status)
}

func TestImporter_NoSource(t *testing.T) {
	f := newFixture(t)
	imp := NewImporter(nil, receipt.NewParser(nil), f.classifier, f.inventory, nil, nil)

	_, err := imp.ImportRange(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrNoSource)

	res := imp.ImportDetail(context.Background(), structuredReceipt())
	assert.Equal(t, domain.ImportStatusImported, res.Status)
}
