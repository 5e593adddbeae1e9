package receipt

import (
	"Pantry-Ledger/domain"
	"bytes"
	"encoding/json"
	"strings"
)

// value accepts either a bare scalar or an object carrying the scalar under
// "#Value", the two shapes the receipt service uses interchangeably.
type value struct {
	text string
	set  bool
}

func (v *value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		if inner, ok := obj["#Value"]; ok {
			return v.UnmarshalJSON(inner)
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v.text, v.set = strings.TrimSpace(s), true
	case '[':
		return nil
	default:
		v.text, v.set = string(b), true
	}
	return nil
}

func (v value) asInt() (int, bool) {
	if !v.set || v.text == "" {
		return 0, false
	}
	n, err := toInt(v.text)
	if err != nil {
		return 0, false
	}
	return n, true
}

type (
	retailTransaction struct {
		LineItem json.RawMessage `json:"LineItem"`
	}

	digitalReceipt struct {
		Transaction struct {
			RetailTransaction retailTransaction `json:"RetailTransaction"`
		} `json:"Transaction"`
	}

	envelope struct {
		Results struct {
			DigitalReceipt digitalReceipt `json:"DigitalReceipt"`
		} `json:"results"`
		DigitalReceipt digitalReceipt `json:"DigitalReceipt"`
	}

	sale struct {
		ItemID                value           `json:"ItemID"`
		ItemDescription       value           `json:"ItemDescription"`
		ExtendedAmount        value           `json:"ExtendedAmount"`
		ActualSalesUnitPrice  value           `json:"ActualSalesUnitPrice"`
		RegularSalesUnitPrice value           `json:"RegularSalesUnitPrice"`
		Quantity              value           `json:"Quantity"`
		Discount              json.RawMessage `json:"Discount"`
	}

	discount struct {
		Amount value `json:"Amount"`
	}
)

// parseStructured reads sale entries from the raw receipt payload. ok is
// false when the payload carries no sale entries at all, which sends the
// caller to the printed-line fallback.
func parseStructured(raw json.RawMessage) (items []domain.PurchaseLineItem, ok bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}

	lineItems := env.Results.DigitalReceipt.Transaction.RetailTransaction.LineItem
	if len(lineItems) == 0 {
		lineItems = env.DigitalReceipt.Transaction.RetailTransaction.LineItem
	}

	entries := splitArray(lineItems)
	items = make([]domain.PurchaseLineItem, 0, len(entries))

	for _, entry := range entries {
		var line struct {
			Sale json.RawMessage `json:"Sale"`
		}
		if err := json.Unmarshal(entry, &line); err != nil || isEmptyJSON(line.Sale) {
			continue
		}
		ok = true

		var s sale
		if err := json.Unmarshal(line.Sale, &s); err != nil {
			continue
		}
		if item, valid := s.toLineItem(); valid {
			items = append(items, item)
		}
	}

	return items, ok
}

func (s sale) toLineItem() (domain.PurchaseLineItem, bool) {
	name := strings.TrimSpace(s.ItemDescription.text)
	if name == "" {
		return domain.PurchaseLineItem{}, false
	}

	quantity, okQty := s.Quantity.asInt()
	if !okQty || quantity < 1 {
		quantity = 1
	}

	price, okPrice := s.ActualSalesUnitPrice.asInt()
	if !okPrice {
		price, okPrice = s.RegularSalesUnitPrice.asInt()
	}
	if !okPrice {
		extended, _ := s.ExtendedAmount.asInt()
		price = unitPrice(extended, quantity)
	}

	item := domain.PurchaseLineItem{
		Name:     name,
		Price:    abs(price),
		Quantity: quantity,
		Discount: discountTotal(s.Discount),
	}
	if s.ItemID.set && s.ItemID.text != "" {
		barcode := s.ItemID.text
		item.Barcode = &barcode
	}
	return item, true
}

// unitPrice divides a line total by its quantity, rounding half up.
func unitPrice(extended, quantity int) int {
	if quantity <= 1 {
		return extended
	}
	return (extended + quantity/2) / quantity
}

func discountTotal(raw json.RawMessage) int {
	total := 0
	for _, entry := range splitArray(raw) {
		var d discount
		if err := json.Unmarshal(entry, &d); err != nil {
			continue
		}
		if n, ok := d.Amount.asInt(); ok {
			total += abs(n)
		}
	}
	return total
}

// splitArray returns the elements of a JSON array, or the value itself when
// it is a single object.
func splitArray(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if isEmptyJSON(raw) {
		return nil
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		return list
	}
	if raw[0] == '{' {
		return []json.RawMessage{raw}
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
