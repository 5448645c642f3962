package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/catalog"
)

// CategoryHandler serves the category filter chips with item counts.
type CategoryHandler struct {
	store CatalogReader
	log   logrus.FieldLogger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(store CatalogReader, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{store: store, log: orStandard(log)}
}

// RegisterRoutes registers the public category endpoint.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu/categories", h.List)
}

// RegisterOwnerRoutes registers the owner's category endpoint.
// Expected to be mounted inside an owner-only subrouter.
func (h *CategoryHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Get("/categories", h.ListAll)
}

// --- Handlers ---

// List counts active items per category.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

// ListAll counts every item per category, inactive ones included.
func (h *CategoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

// --- Helpers ---

func (h *CategoryHandler) respond(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	items, err := h.store.Load(r.Context())
	if err != nil {
		writeError(w, h.log, "list categories", err)
		return
	}
	if activeOnly {
		items = catalog.ActiveOnly(items)
	}
	writeJSON(w, http.StatusOK, catalog.CategoryCounts(items))
}
