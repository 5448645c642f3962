// Package pricing computes order totals from a menu item, a size option and
// a quantity. All amounts are whole rupees held as decimals.
package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/homebake/api/internal/catalog"
)

// ErrInvalidQuantity is returned when quantity is below 1.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Size is one of the fixed cake sizes. Delta is added to the base price.
type Size struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Delta decimal.Decimal `json:"delta"`
}

var sizes = []Size{
	{ID: "small", Label: "Small (600gm)", Delta: decimal.NewFromInt(0)},
	{ID: "medium", Label: "Medium (1200gm)", Delta: decimal.NewFromInt(300)},
	{ID: "medium-plus", Label: "Medium Plus (1500gm)", Delta: decimal.NewFromInt(500)},
	{ID: "large", Label: "Large (2000gm)", Delta: decimal.NewFromInt(800)},
	{ID: "xl", Label: "Extra Large (3000gm)", Delta: decimal.NewFromInt(1200)},
}

// Sizes returns the size options in display order.
func Sizes() []Size {
	out := make([]Size, len(sizes))
	copy(out, sizes)
	return out
}

// DefaultSize is the preselected size.
func DefaultSize() Size { return sizes[0] }

// SizeByID looks up a size option. An empty id selects the default.
func SizeByID(id string) (Size, bool) {
	if id == "" {
		return DefaultSize(), true
	}
	for _, s := range sizes {
		if s.ID == id {
			return s, true
		}
	}
	return Size{}, false
}

// UnitPrice is base price plus the size delta.
func UnitPrice(item catalog.MenuItem, size Size) decimal.Decimal {
	return item.BasePrice.Add(size.Delta)
}

// Price returns (base + delta) * quantity.
func Price(item catalog.MenuItem, size Size, quantity int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, ErrInvalidQuantity
	}
	return UnitPrice(item, size).Mul(decimal.NewFromInt(int64(quantity))), nil
}

// FormatRupees renders d with the rupee sign and Indian digit grouping,
// e.g. ₹1,23,450. Fractions are rounded to whole rupees.
func FormatRupees(d decimal.Decimal) string {
	digits := d.Abs().Round(0).StringFixed(0)
	sign := ""
	if d.Round(0).IsNegative() {
		sign = "-"
	}
	return sign + "₹" + groupIndian(digits)
}

// groupIndian puts a comma before the last three digits and then after
// every two digits going left.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var b strings.Builder
	lead := len(head) % 2
	if lead > 0 {
		b.WriteString(head[:lead])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}
