// Package catalog owns the bakery menu: the persisted set of MenuItems, the
// mutations the owner screens perform on it, and the read-only views every
// storefront surface derives from it.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/homebake/api/internal/enum"
)

// PlaceholderImage is used when an item is added without an image.
const PlaceholderImage = "/assets/placeholder.jpg"

// DefaultRating is applied when an item is added without a rating.
const DefaultRating = 4.5

// MenuItem is one catalog entry. Values returned by the Store are copies.
type MenuItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Image           string          `json:"image"`
	BasePrice       decimal.Decimal `json:"base_price"`
	PreparationTime string          `json:"preparation_time"`
	IsEggless       bool            `json:"is_eggless"`
	IsVegan         bool            `json:"is_vegan"`
	Rating          float64         `json:"rating"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// EffectiveCategory returns the item's category, or the Uncategorized bucket
// when the stored value is not one of the known categories.
func (m MenuItem) EffectiveCategory() string {
	if enum.IsCategory(m.Category) {
		return m.Category
	}
	return enum.CategoryUncategorized
}

// Candidate is the input to Store.Add. Nil pointers mean "not supplied".
type Candidate struct {
	Name            string
	Description     string
	Category        string
	Image           string
	BasePrice       *decimal.Decimal
	PreparationTime string
	IsEggless       bool
	IsVegan         bool
	Rating          *float64
	IsActive        *bool
}

// Patch is the input to Store.Update. Only non-nil fields are applied.
type Patch struct {
	Name            *string
	Description     *string
	Category        *string
	Image           *string
	BasePrice       *decimal.Decimal
	PreparationTime *string
	IsEggless       *bool
	IsVegan         *bool
	Rating          *float64
	IsActive        *bool
}

// Change describes one successful catalog mutation. ItemID is empty for
// wholesale replacements.
type Change struct {
	Type   string    `json:"type"`
	ItemID string    `json:"item_id,omitempty"`
	At     time.Time `json:"at"`
}

func cloneItems(items []MenuItem) []MenuItem {
	if items == nil {
		return []MenuItem{}
	}
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}
