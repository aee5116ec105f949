package split

import "github.com/shopspring/decimal"

// LineItem is one purchased product as decoded from a receipt payload.
// Instances are recreated on every decode of the same receipt, so they must
// never be used as identity; see BuildKeys.
type LineItem struct {
	SourceIndex   int
	BackendItemID string
	Name          string
	UnitPrice     decimal.Decimal
	Quantity      int
}

// LineTotal returns unit price times quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ReceiptSource exposes the read-only receipt data the engine allocates
// shares over.
type ReceiptSource interface {
	ReceiptID() string
	StoreName() string
	TotalAmount() decimal.Decimal
	LineItems() []LineItem
}
