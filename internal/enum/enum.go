package enum

// ── Menu categories (fixed set, validated on add/update) ──

const (
	CategoryCelebrationCakes = "Celebration Cakes"
	CategoryBrownies         = "Brownies"
	CategoryCupcakes         = "Cupcakes"
	CategoryCookies          = "Cookies"
	CategoryBreads           = "Breads"
	CategoryJarCakes         = "Jar Cakes"
	CategoryTarts            = "Tarts"
	CategorySeasonal         = "Seasonal"
)

// CategoryAll is the filter sentinel meaning "no category filter".
const CategoryAll = "all"

// CategoryUncategorized is the bucket for stored items whose category is not
// a member of Categories.
const CategoryUncategorized = "Uncategorized"

// Categories lists the menu categories in display order.
var Categories = []string{
	CategoryCelebrationCakes,
	CategoryBrownies,
	CategoryCupcakes,
	CategoryCookies,
	CategoryBreads,
	CategoryJarCakes,
	CategoryTarts,
	CategorySeasonal,
}

// IsCategory reports whether c is one of the fixed menu categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ── Order intake options ──

const (
	DietaryEgg     = "egg"
	DietaryEggless = "eggless"
)

const (
	TimeSlotMorning   = "morning"
	TimeSlotAfternoon = "afternoon"
	TimeSlotEvening   = "evening"
)

// ── Roles ──

const UserRoleOwner = "OWNER"

// ── Catalog change events (websocket payload types) ──

const (
	CatalogItemCreated = "catalog.item_created"
	CatalogItemUpdated = "catalog.item_updated"
	CatalogItemDeleted = "catalog.item_deleted"
	CatalogReplaced    = "catalog.replaced"
)

// ── Storage drivers ──

const (
	StoreDriverMemory   = "memory"
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMySQL    = "mysql"
)

// ── Order sinks ──

const (
	SinkWhatsApp = "whatsapp"
	SinkWebhook  = "webhook"
	SinkLog      = "log"
)
