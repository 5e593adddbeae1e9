package receipt

import (
	"encoding/json"
	"testing"
	"time"

	"Pantry-Ledger/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var textLines = []string{
	"PrintBitmap(1, 'logo.bmp')",
	"イオン 幕張店",
	"2026年02月12日(木) 18:30",
	"----------------------------",
	"ﾄｯﾌﾟﾊﾞﾘｭ ﾐﾈﾗﾙｳｫｰﾀｰ      ¥88※",
	"明治おいしい牛乳          ￥２３８",
	"値引                     -50",
	"PrintDouble('ﾁｮｺﾚｰﾄ ﾐﾙｸ      ¥198*', 2)",
	"小計                   ¥524",
	"PrintDouble('合計          ¥524', 2)",
	"お預り                ¥1,000",
	"PrintBarCode('2100000123456', 3)",
}

func newDetail(lines []string, raw string) domain.ReceiptDetail {
	d := domain.ReceiptDetail{
		ReceiptID:   "R-1",
		StoreName:   "イオン 幕張店",
		PurchasedAt: time.Date(2026, 2, 12, 18, 30, 0, 0, time.UTC),
		Lines:       lines,
	}
	if raw != "" {
		d.Raw = json.RawMessage(raw)
	}
	return d
}

func TestParser_TextFallback(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail(textLines, ""))

	assert.False(t, parsed.Structured)
	require.Len(t, parsed.Items, 3)

	assert.Equal(t, "ﾄｯﾌﾟﾊﾞﾘｭ ﾐﾈﾗﾙｳｫｰﾀｰ", parsed.Items[0].Name)
	assert.Equal(t, 88, parsed.Items[0].Price)
	assert.Equal(t, 1, parsed.Items[0].Quantity)

	assert.Equal(t, "明治おいしい牛乳", parsed.Items[1].Name)
	assert.Equal(t, 238, parsed.Items[1].Price)
	assert.Equal(t, 50, parsed.Items[1].Discount)

	assert.Equal(t, "ﾁｮｺﾚｰﾄ ﾐﾙｸ", parsed.Items[2].Name)
	assert.Equal(t, 198, parsed.Items[2].Price)
	assert.Zero(t, parsed.Items[2].Discount)
}

func TestParser_FullAndHalfWidthDigitsAgree(t *testing.T) {
	half := NewParser(nil).Parse(newDetail([]string{"ﾊﾞﾅﾅ        ¥198"}, ""))
	full := NewParser(nil).Parse(newDetail([]string{"ﾊﾞﾅﾅ        ￥１９８"}, ""))

	require.Len(t, half.Items, 1)
	require.Len(t, full.Items, 1)
	assert.Equal(t, half.Items[0].Price, full.Items[0].Price)
}

func TestParser_DiscountBeforeAnyItemIgnored(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail([]string{
		"値引                     -50",
		"ﾊﾞﾅﾅ        ¥198",
	}, ""))

	require.Len(t, parsed.Items, 1)
	assert.Zero(t, parsed.Items[0].Discount)
}

func TestParser_DoubleWidthItemWithApostrophe(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail([]string{
		"PrintDouble('ﾏｸﾄﾞﾅﾙﾄﾞ's ｺｰﾋｰ  ¥198', 2)",
	}, ""))

	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "ﾏｸﾄﾞﾅﾙﾄﾞ's ｺｰﾋｰ", parsed.Items[0].Name)
	assert.Equal(t, 198, parsed.Items[0].Price)
}

func TestParser_DiscountsAccumulateOnPrecedingItem(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail([]string{
		"ﾊﾞﾅﾅ        ¥198",
		"ﾜﾘﾋﾞｷ 20%        -40",
		"ｸｰﾎﾟﾝ            -10",
	}, ""))

	require.Len(t, parsed.Items, 1)
	assert.Equal(t, 50, parsed.Items[0].Discount)
}

func TestParser_MalformedPriceSkipped(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail([]string{
		"ﾊﾞﾅﾅ        ¥0",
		"ｷｬﾍﾞﾂ       ¥99999999999",
		"ﾄﾏﾄ         ¥158",
	}, ""))

	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "ﾄﾏﾄ", parsed.Items[0].Name)
}

const structuredPayload = `{
  "results": {
    "DigitalReceipt": {
      "ReceiptID": "R-1",
      "Transaction": {
        "RetailTransaction": {
          "LineItem": [
            {"Advertising": {"AdvertisingID": "ad1", "ImageData": ""}},
            {"Sale": {
              "ItemID": {"#Value": "4902705001234"},
              "ItemDescription": {"#Value": "明治おいしい牛乳"},
              "ExtendedAmount": {"#Value": "476"},
              "Quantity": {"#Value": "2"},
              "Discount": {"Amount": {"#Value": "30"}}
            }},
            {"Sale": {
              "ItemDescription": "ﾁｮｺﾚｰﾄ",
              "ActualSalesUnitPrice": "１９８",
              "ExtendedAmount": 198
            }},
            {"Sale": {"ItemDescription": {"#Value": ""}, "ExtendedAmount": "10"}}
          ]
        }
      }
    }
  }
}`

func TestParser_StructuredPath(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail(nil, structuredPayload))

	assert.True(t, parsed.Structured)
	require.Len(t, parsed.Items, 2)

	milk := parsed.Items[0]
	assert.Equal(t, "明治おいしい牛乳", milk.Name)
	assert.Equal(t, 238, milk.Price)
	assert.Equal(t, 2, milk.Quantity)
	assert.Equal(t, 30, milk.Discount)
	require.NotNil(t, milk.Barcode)
	assert.Equal(t, "4902705001234", *milk.Barcode)

	choco := parsed.Items[1]
	assert.Equal(t, 198, choco.Price)
	assert.Equal(t, 1, choco.Quantity)
	assert.Nil(t, choco.Barcode)
}

func TestParser_StructuredTakesPrecedenceOverLines(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail(textLines, structuredPayload))

	assert.True(t, parsed.Structured)
	assert.Len(t, parsed.Items, 2)
}

func TestParser_SingleLineItemObject(t *testing.T) {
	raw := `{"DigitalReceipt": {"Transaction": {"RetailTransaction": {"LineItem":
		{"Sale": {"ItemDescription": "豆腐", "ExtendedAmount": "88"}}}}}}`

	parsed := NewParser(nil).Parse(newDetail(textLines, raw))

	assert.True(t, parsed.Structured)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "豆腐", parsed.Items[0].Name)
}

func TestParser_PayloadWithoutSalesFallsBackToLines(t *testing.T) {
	raw := `{"results": {"DigitalReceipt": {"Transaction": {"RetailTransaction": {"LineItem": [
		{"Advertising": {"AdvertisingID": "ad1"}}]}}}}}`

	parsed := NewParser(nil).Parse(newDetail(textLines, raw))

	assert.False(t, parsed.Structured)
	assert.Len(t, parsed.Items, 3)
}

func TestParser_UndecodablePayloadFallsBackToLines(t *testing.T) {
	parsed := NewParser(nil).Parse(newDetail(textLines, `{"results": "oops"}`))

	assert.False(t, parsed.Structured)
	assert.Len(t, parsed.Items, 3)
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1,234", want: 1234},
		{in: "１，２３４", want: 1234},
		{in: "¥88", want: 88},
		{in: "123.0", want: 123},
		{in: "-50", want: -50},
		{in: "abc", wantErr: true},
		{in: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		got, err := toInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
