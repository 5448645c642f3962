package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/export"
	"github.com/homebake/api/internal/pricing"
)

// MenuStore defines the catalog methods needed by menu handlers.
// Satisfied by *catalog.Store; narrow interface for testability.
type MenuStore interface {
	Load(ctx context.Context) ([]catalog.MenuItem, error)
	Get(ctx context.Context, id string) (catalog.MenuItem, error)
	Add(ctx context.Context, c catalog.Candidate) (catalog.MenuItem, error)
	Update(ctx context.Context, id string, p catalog.Patch) (catalog.MenuItem, error)
	Remove(ctx context.Context, id string) error
}

// MenuHandler handles the owner's menu management endpoints.
type MenuHandler struct {
	store MenuStore
	log   logrus.FieldLogger
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, log logrus.FieldLogger) *MenuHandler {
	return &MenuHandler{store: store, log: orStandard(log)}
}

// RegisterRoutes registers menu CRUD endpoints on the given Chi router.
// Expected to be mounted inside an owner-only subrouter: /owner/menu
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/export", h.Export)
	r.Get("/{id}", h.Get)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createMenuItemRequest struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Image           string           `json:"image"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	PreparationTime string           `json:"preparation_time"`
	IsEggless       bool             `json:"is_eggless"`
	IsVegan         bool             `json:"is_vegan"`
	Rating          *float64         `json:"rating"`
	IsActive        *bool            `json:"is_active"`
}

// updateMenuItemRequest is a merge patch: absent fields keep their value.
type updateMenuItemRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	Image           *string          `json:"image"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	PreparationTime *string          `json:"preparation_time"`
	IsEggless       *bool            `json:"is_eggless"`
	IsVegan         *bool            `json:"is_vegan"`
	Rating          *float64         `json:"rating"`
	IsActive        *bool            `json:"is_active"`
}

type menuItemResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Image           string    `json:"image"`
	BasePrice       string    `json:"base_price"`
	PriceDisplay    string    `json:"price_display"`
	PreparationTime string    `json:"preparation_time"`
	IsEggless       bool      `json:"is_eggless"`
	IsVegan         bool      `json:"is_vegan"`
	Rating          float64   `json:"rating"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toMenuItemResponse(m catalog.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		// stored categories outside the fixed set are listed as Uncategorized
		Category: m.EffectiveCategory(),
		Image:    m.Image,
		// always 2 decimal places for consistent money representation
		BasePrice:       m.BasePrice.StringFixed(2),
		PriceDisplay:    pricing.FormatRupees(m.BasePrice),
		PreparationTime: m.PreparationTime,
		IsEggless:       m.IsEggless,
		IsVegan:         m.IsVegan,
		Rating:          m.Rating,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toMenuItemResponses(items []catalog.MenuItem) []menuItemResponse {
	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	return resp
}

// --- Handlers ---

// List returns every menu item, inactive ones included, optionally filtered
// by ?category= and ?q=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, h.log, "list menu items", err)
		return
	}

	q := r.URL.Query()
	items = catalog.Apply(items, catalog.View{
		Category:        q.Get("category"),
		Search:          q.Get("q"),
		IncludeInactive: true,
	})

	writeJSON(w, http.StatusOK, toMenuItemResponses(items))
}

// Get returns a single menu item by ID, active or not.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "get menu item", err)
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a new menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.Add(r.Context(), catalog.Candidate{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Image:           req.Image,
		BasePrice:       req.BasePrice,
		PreparationTime: req.PreparationTime,
		IsEggless:       req.IsEggless,
		IsVegan:         req.IsVegan,
		Rating:          req.Rating,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(w, h.log, "create menu item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update merges the supplied fields into an existing menu item.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), catalog.Patch{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Image:           req.Image,
		BasePrice:       req.BasePrice,
		PreparationTime: req.PreparationTime,
		IsEggless:       req.IsEggless,
		IsVegan:         req.IsVegan,
		Rating:          req.Rating,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(w, h.log, "update menu item", err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete removes a menu item permanently.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, "delete menu item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export downloads the whole menu as menu-items.json or menu-items.xlsx.
func (h *MenuHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatJSON
	}
	if format != export.FormatJSON && format != export.FormatXLSX {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be json or xlsx"})
		return
	}

	items, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, h.log, "export menu", err)
		return
	}

	// render fully before writing headers so a failure can still be a 500
	var buf bytes.Buffer
	if err := export.Write(&buf, format, items); err != nil {
		writeError(w, h.log, "export menu", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.WithError(err).Warn("write menu export")
	}
}
