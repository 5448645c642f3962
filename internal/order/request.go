// Package order models a customer's order request, validates it, and renders
// it as the plain-text message handed to an order sink.
package order

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/homebake/api/internal/apperr"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/enum"
	"github.com/homebake/api/internal/pricing"
)

// DateLayout is the accepted format for Request.Date.
const DateLayout = "2006-01-02"

// MaxSpecialMessage is the longest special message, in characters.
const MaxSpecialMessage = 50

// Flavors offered on the order form. Flavor is free text; this list is what
// the form suggests.
var Flavors = []string{
	"Chocolate", "Vanilla", "Strawberry", "Red Velvet", "Carrot",
	"Lemon", "Coffee", "Butterscotch", "Black Forest", "Fruit Mix",
}

// CustomOrder is the item label for requests not tied to a menu item.
const CustomOrder = "Custom Order"

// Request is one order as collected from a customer. It is never persisted.
type Request struct {
	Name  string
	Phone string
	Email string

	// Item is the selected menu item. ItemLabel is used instead when the
	// customer picked a free-text entry such as CustomOrder.
	Item      *catalog.MenuItem
	ItemLabel string

	SizeID         string
	Flavor         string
	Dietary        string
	SpecialMessage string
	Notes          string
	Quantity       int
	Date           string
	TimeSlot       string
}

// Default is the state the intake form resets to.
func Default() Request {
	return Request{
		SizeID:   pricing.DefaultSize().ID,
		Dietary:  enum.DietaryEggless,
		Quantity: 1,
		TimeSlot: enum.TimeSlotMorning,
	}
}

// NormalizeDietary maps accepted spellings to the canonical option.
// Unknown values are returned unchanged.
func NormalizeDietary(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "egg", "with-egg", "with egg":
		return enum.DietaryEgg
	case "eggless":
		return enum.DietaryEggless
	}
	return s
}

// ItemName is the display name of the requested item, or "" when none.
func (r Request) ItemName() string {
	if r.Item != nil {
		return r.Item.Name
	}
	return strings.TrimSpace(r.ItemLabel)
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Validate checks the required fields and formats. now decides whether the
// requested date is in the past; dates are compared in now's location.
// The first failing field is reported as an *apperr.ValidationError.
func Validate(r Request, now time.Time) error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validation("name", "is required")
	}

	phone := strings.TrimSpace(r.Phone)
	if phone == "" {
		return apperr.Validation("phone", "is required")
	}
	compact := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	if !phonePattern.MatchString(compact) {
		return apperr.Validation("phone", "is not a valid phone number")
	}

	if email := strings.TrimSpace(r.Email); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return apperr.Validation("email", "is not a valid email address")
		}
	}

	if r.ItemName() == "" {
		return apperr.Validation("item", "is required")
	}
	if r.Item != nil && !r.Item.IsActive {
		return apperr.Validation("item", "is not available")
	}

	if r.SizeID != "" {
		if _, ok := pricing.SizeByID(r.SizeID); !ok {
			return apperr.Validation("size", "is not a known size")
		}
	}

	if strings.TrimSpace(r.Flavor) == "" {
		return apperr.Validation("flavor", "is required")
	}

	if strings.TrimSpace(r.Date) == "" {
		return apperr.Validation("date", "is required")
	}
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(r.Date), now.Location())
	if err != nil {
		return apperr.Validation("date", "must be YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return apperr.Validation("date", "must not be in the past")
	}

	if r.TimeSlot != "" && !isTimeSlot(r.TimeSlot) {
		return apperr.Validation("time", "must be morning, afternoon or evening")
	}

	if r.Quantity < 1 {
		return apperr.Validation("quantity", "must be a positive integer")
	}

	switch NormalizeDietary(r.Dietary) {
	case enum.DietaryEgg, enum.DietaryEggless:
	case "":
		return apperr.Validation("dietary", "is required")
	default:
		return apperr.Validation("dietary", "must be egg or eggless")
	}

	if utf8.RuneCountInString(r.SpecialMessage) > MaxSpecialMessage {
		return apperr.Validation("special_message", "must be at most 50 characters")
	}
	return nil
}

func isTimeSlot(s string) bool {
	switch s {
	case enum.TimeSlotMorning, enum.TimeSlotAfternoon, enum.TimeSlotEvening:
		return true
	}
	return false
}
