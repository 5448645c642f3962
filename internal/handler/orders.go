package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/intake"
	"github.com/homebake/api/internal/middleware"
	"github.com/homebake/api/internal/order"
)

// FormDesk hands out the intake form for a customer session.
// Satisfied by *intake.Desk.
type FormDesk interface {
	Form(session string) *intake.Form
	Lookup(session string) (*intake.Form, bool)
}

// OrderHandler handles order intake submissions.
type OrderHandler struct {
	store CatalogReader
	desk  FormDesk
	log   logrus.FieldLogger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store CatalogReader, desk FormDesk, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{store: store, desk: desk, log: orStandard(log)}
}

// RegisterRoutes registers order intake endpoints on the given Chi router.
// submitLimit, when non-nil, guards POST /orders only.
func (h *OrderHandler) RegisterRoutes(r chi.Router, submitLimit func(http.Handler) http.Handler) {
	if submitLimit != nil {
		r.With(submitLimit).Post("/orders", h.Submit)
	} else {
		r.Post("/orders", h.Submit)
	}
	r.Get("/orders/form", h.Form)
}

// --- Request / Response types ---

type orderRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	ItemID         string `json:"item_id"`
	Item           string `json:"item"`
	Size           string `json:"size"`
	Flavor         string `json:"flavor"`
	Dietary        string `json:"dietary"`
	SpecialMessage string `json:"special_message"`
	Notes          string `json:"notes"`
	Quantity       *int   `json:"quantity"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

type formResponse struct {
	State string       `json:"state"`
	Draft orderRequest `json:"draft"`
}

type submitErrorResponse struct {
	Error string `json:"error"`
	intake.Result
}

// resolve looks up the selected menu item and fills form defaults.
// An unknown item_id is a *apperr.NotFoundError.
func (req orderRequest) resolve(ctx context.Context, store CatalogReader) (order.Request, error) {
	o := order.Default()
	o.Name = req.Name
	o.Phone = req.Phone
	o.Email = req.Email
	o.ItemLabel = req.Item
	o.Flavor = req.Flavor
	o.SpecialMessage = req.SpecialMessage
	o.Notes = req.Notes
	o.Date = req.Date
	if req.Size != "" {
		o.SizeID = req.Size
	}
	if req.Dietary != "" {
		o.Dietary = order.NormalizeDietary(req.Dietary)
	}
	if req.Quantity != nil {
		o.Quantity = *req.Quantity
	}
	if req.Time != "" {
		o.TimeSlot = req.Time
	}

	if req.ItemID != "" {
		item, err := store.Get(ctx, req.ItemID)
		if err != nil {
			return order.Request{}, err
		}
		o.Item = &item
	}
	return o, nil
}

func toOrderRequestBody(o order.Request) orderRequest {
	qty := o.Quantity
	req := orderRequest{
		Name:           o.Name,
		Phone:          o.Phone,
		Email:          o.Email,
		Item:           o.ItemLabel,
		Size:           o.SizeID,
		Flavor:         o.Flavor,
		Dietary:        o.Dietary,
		SpecialMessage: o.SpecialMessage,
		Notes:          o.Notes,
		Quantity:       &qty,
		Date:           o.Date,
		Time:           o.TimeSlot,
	}
	if o.Item != nil {
		req.ItemID = o.Item.ID
	}
	return req
}

// --- Handlers ---

// Submit validates the order and hands it to the configured sink. The
// session's form accepts one submission at a time.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	o, err := req.resolve(r.Context(), h.store)
	if err != nil {
		writeError(w, h.log, "resolve order item", err)
		return
	}

	form := h.desk.Form(middleware.ClientKey(r))
	result, err := form.Submit(r.Context(), o)
	if err != nil {
		if errors.Is(err, intake.ErrSinkFailed) {
			writeJSON(w, http.StatusBadGateway, submitErrorResponse{Error: "order could not be delivered", Result: result})
			return
		}
		writeError(w, h.log, "submit order", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Form returns the session's form state and current draft. A session with
// no form yet sees the defaults; reading never creates one.
func (h *OrderHandler) Form(w http.ResponseWriter, r *http.Request) {
	form, ok := h.desk.Lookup(middleware.ClientKey(r))
	if !ok {
		writeJSON(w, http.StatusOK, formResponse{
			State: intake.Editing.String(),
			Draft: toOrderRequestBody(order.Default()),
		})
		return
	}
	writeJSON(w, http.StatusOK, formResponse{
		State: form.State().String(),
		Draft: toOrderRequestBody(form.Draft()),
	})
}
