package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/apperr"
	"github.com/homebake/api/internal/intake"
	"github.com/homebake/api/internal/pricing"
)

// writeError maps core errors to a status and a JSON error body. Only
// unexpected errors are logged.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, op string, err error) {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, pricing.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "quantity"})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFound.Kind + " not found"})
	case errors.Is(err, intake.ErrSubmissionInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.WithError(err).Error(op)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
