package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/apperr"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/enum"
	"github.com/homebake/api/internal/order"
	"github.com/homebake/api/internal/pricing"
)

// DefaultBestsellers is the size of the storefront grid.
const DefaultBestsellers = 4

// CatalogReader defines the catalog methods needed by the public surfaces.
// Satisfied by *catalog.Store.
type CatalogReader interface {
	Load(ctx context.Context) ([]catalog.MenuItem, error)
	Get(ctx context.Context, id string) (catalog.MenuItem, error)
}

// LinkBuilder turns a composed message into a chat hand-off URL.
// Satisfied by *sink.WhatsApp.
type LinkBuilder interface {
	Link(destination, text string) string
}

// StorefrontHandler serves the public catalog views and the configurator.
type StorefrontHandler struct {
	store       CatalogReader
	links       LinkBuilder
	destination string
	log         logrus.FieldLogger
}

// NewStorefrontHandler creates a new StorefrontHandler. destination is the
// bakery's chat number used for hand-off links.
func NewStorefrontHandler(store CatalogReader, links LinkBuilder, destination string, log logrus.FieldLogger) *StorefrontHandler {
	return &StorefrontHandler{store: store, links: links, destination: destination, log: orStandard(log)}
}

// RegisterRoutes registers the public storefront endpoints.
func (h *StorefrontHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Menu)
	r.Get("/menu/bestsellers", h.Bestsellers)
	r.Get("/menu/{id}", h.Item)
	r.Get("/menu/{id}/quick-order", h.QuickOrder)
	r.Get("/sizes", h.Sizes)
	r.Get("/order-options", h.OrderOptions)
	r.Post("/quote", h.Quote)
	r.Post("/orders/compose", h.Compose)
}

// --- Request / Response types ---

type sizeResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Delta string `json:"delta"`
}

type orderOptionsResponse struct {
	Sizes             []sizeResponse `json:"sizes"`
	Flavors           []string       `json:"flavors"`
	Dietary           []string       `json:"dietary"`
	TimeSlots         []string       `json:"time_slots"`
	MaxSpecialMessage int            `json:"max_special_message"`
}

type quoteRequest struct {
	ItemID   string `json:"item_id"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type quoteResponse struct {
	ItemID       string `json:"item_id"`
	Size         string `json:"size"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	Total        string `json:"total"`
	TotalDisplay string `json:"total_display"`
}

type handoffResponse struct {
	Message string `json:"message"`
	Link    string `json:"link"`
}

func toSizeResponses(sizes []pricing.Size) []sizeResponse {
	resp := make([]sizeResponse, len(sizes))
	for i, s := range sizes {
		resp[i] = sizeResponse{ID: s.ID, Label: s.Label, Delta: s.Delta.StringFixed(2)}
	}
	return resp
}

// --- Handlers ---

// Menu is the searchable drawer: active items filtered by ?category=, ?q=
// and an optional ?limit= of top-rated results.
func (h *StorefrontHandler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, h.log, "load menu", err)
		return
	}

	q := r.URL.Query()
	view := catalog.View{Category: q.Get("category"), Search: q.Get("q")}
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			view.Limit = v
		}
	}

	writeJSON(w, http.StatusOK, toMenuItemResponses(catalog.Apply(items, view)))
}

// Bestsellers is the storefront grid: the ?n= (default 4) top-rated active items.
func (h *StorefrontHandler) Bestsellers(w http.ResponseWriter, r *http.Request) {
	n := DefaultBestsellers
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a positive integer"})
			return
		}
		n = v
	}

	items, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, h.log, "load bestsellers", err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponses(catalog.Apply(items, catalog.View{Limit: n})))
}

// Item returns the product detail for an active item.
func (h *StorefrontHandler) Item(w http.ResponseWriter, r *http.Request) {
	item, err := h.activeItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "get menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// QuickOrder returns the one-line order message for an item at its listed
// price, with the chat hand-off link.
func (h *StorefrontHandler) QuickOrder(w http.ResponseWriter, r *http.Request) {
	item, err := h.activeItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "quick order", err)
		return
	}
	text := order.ComposeQuickOrder(item)
	writeJSON(w, http.StatusOK, handoffResponse{Message: text, Link: h.links.Link(h.destination, text)})
}

// Sizes lists the size options in display order.
func (h *StorefrontHandler) Sizes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSizeResponses(pricing.Sizes()))
}

// OrderOptions lists the choices offered by the order form.
func (h *StorefrontHandler) OrderOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orderOptionsResponse{
		Sizes:             toSizeResponses(pricing.Sizes()),
		Flavors:           order.Flavors,
		Dietary:           []string{enum.DietaryEggless, enum.DietaryEgg},
		TimeSlots:         []string{enum.TimeSlotMorning, enum.TimeSlotAfternoon, enum.TimeSlotEvening},
		MaxSpecialMessage: order.MaxSpecialMessage,
	})
}

// Quote prices a configuration: (base + size delta) * quantity.
func (h *StorefrontHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_id is required"})
		return
	}

	size, ok := pricing.SizeByID(req.Size)
	if !ok {
		writeError(w, h.log, "quote", apperr.Validation("size", "is not a known size"))
		return
	}

	item, err := h.activeItem(r.Context(), req.ItemID)
	if err != nil {
		writeError(w, h.log, "quote", err)
		return
	}

	total, err := pricing.Price(item, size, req.Quantity)
	if err != nil {
		writeError(w, h.log, "quote", err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		ItemID:       item.ID,
		Size:         size.ID,
		Quantity:     req.Quantity,
		UnitPrice:    pricing.UnitPrice(item, size).StringFixed(2),
		Total:        total.StringFixed(2),
		TotalDisplay: pricing.FormatRupees(total),
	})
}

// Compose renders the configurator's order message and its hand-off link
// without submitting anything.
func (h *StorefrontHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	o, err := req.resolve(r.Context(), h.store)
	if err != nil {
		writeError(w, h.log, "compose order", err)
		return
	}
	if o.Item != nil && !o.Item.IsActive {
		writeError(w, h.log, "compose order", apperr.NotFound("menu item", o.Item.ID))
		return
	}

	text := order.Compose(o)
	writeJSON(w, http.StatusOK, handoffResponse{Message: text, Link: h.links.Link(h.destination, text)})
}

// --- Helpers ---

// activeItem hides inactive items from the public surfaces.
func (h *StorefrontHandler) activeItem(ctx context.Context, id string) (catalog.MenuItem, error) {
	item, err := h.store.Get(ctx, id)
	if err != nil {
		return catalog.MenuItem{}, err
	}
	if !item.IsActive {
		return catalog.MenuItem{}, apperr.NotFound("menu item", id)
	}
	return item, nil
}
