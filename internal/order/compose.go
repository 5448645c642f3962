package order

import (
	"fmt"
	"strings"

	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/enum"
	"github.com/homebake/api/internal/pricing"
)

// Placeholders rendered for missing fields.
const (
	NotProvided   = "Not provided"
	NotSpecified  = "Not specified"
	None          = "None"
	ToBeConfirmed = "To be confirmed"
	availability  = "Please let me know the availability and delivery details."
)

// Total returns the order total and whether it can be computed. Requests
// without a menu item, with an unknown size or a quantity below 1 have no
// total.
func Total(r Request) (string, bool) {
	if r.Item == nil {
		return "", false
	}
	size, ok := pricing.SizeByID(r.SizeID)
	if !ok {
		return "", false
	}
	total, err := pricing.Price(*r.Item, size, r.Quantity)
	if err != nil {
		return "", false
	}
	return pricing.FormatRupees(total), true
}

// Compose renders r as the message sent to the bakery. It never fails;
// missing fields are rendered as placeholders.
func Compose(r Request) string {
	var sb strings.Builder

	sb.WriteString("Hi! I'd like to order:\n\n")

	sb.WriteString(fmt.Sprintf("🎂 *%s*\n", orDefault(r.ItemName(), NotSpecified)))
	sb.WriteString(fmt.Sprintf("📦 Size: %s\n", sizeLabel(r.SizeID)))
	sb.WriteString(fmt.Sprintf("🥚 Option: %s\n", dietaryLabel(r.Dietary)))
	sb.WriteString(fmt.Sprintf("🍫 Flavor: %s\n", orDefault(r.Flavor, NotSpecified)))
	sb.WriteString(fmt.Sprintf("📝 Special Message: %s\n", orDefault(r.SpecialMessage, None)))
	sb.WriteString(fmt.Sprintf("🔢 Quantity: %s\n", quantityLabel(r.Quantity)))
	total, ok := Total(r)
	if !ok {
		total = ToBeConfirmed
	}
	sb.WriteString(fmt.Sprintf("💰 Total Price: %s\n\n", total))

	sb.WriteString(fmt.Sprintf("👤 Name: %s\n", orDefault(r.Name, NotProvided)))
	sb.WriteString(fmt.Sprintf("📞 Phone: %s\n", orDefault(r.Phone, NotProvided)))
	sb.WriteString(fmt.Sprintf("✉️ Email: %s\n", orDefault(r.Email, NotProvided)))
	sb.WriteString(fmt.Sprintf("📅 Date Needed: %s\n", orDefault(r.Date, NotSpecified)))
	sb.WriteString(fmt.Sprintf("⏰ Time: %s\n", timeSlotLabel(r.TimeSlot)))
	sb.WriteString(fmt.Sprintf("🗒️ Notes: %s\n\n", orDefault(r.Notes, None)))

	sb.WriteString(availability + " Thank you!")
	return sb.String()
}

// ComposeQuickOrder is the one-line message for ordering an item as listed,
// at its base price.
func ComposeQuickOrder(item catalog.MenuItem) string {
	return fmt.Sprintf("Hi! I'd like to order %s for %s. %s",
		item.Name, pricing.FormatRupees(item.BasePrice), availability)
}

func orDefault(s, placeholder string) string {
	if s = strings.TrimSpace(s); s == "" {
		return placeholder
	}
	return s
}

func sizeLabel(id string) string {
	if s, ok := pricing.SizeByID(id); ok {
		return s.Label
	}
	return NotSpecified
}

func dietaryLabel(d string) string {
	switch NormalizeDietary(d) {
	case enum.DietaryEgg:
		return "With Egg"
	case enum.DietaryEggless:
		return "Eggless"
	}
	return NotSpecified
}

func quantityLabel(q int) string {
	if q < 1 {
		return NotSpecified
	}
	return fmt.Sprintf("%d", q)
}

func timeSlotLabel(s string) string {
	switch s {
	case enum.TimeSlotMorning:
		return "Morning"
	case enum.TimeSlotAfternoon:
		return "Afternoon"
	case enum.TimeSlotEvening:
		return "Evening"
	}
	return NotSpecified
}
