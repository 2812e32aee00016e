package handlers

import (
	"errors"
	"net/http"

	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/processors"
	"github.com/username/portfoliotracker/src/security/validation"
	"github.com/username/portfoliotracker/src/services"
	"github.com/username/portfoliotracker/src/utils"
)

// sendServiceError maps service errors to HTTP statuses. Anything unknown is a 500.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, processors.ErrInvalidRange), errors.Is(err, validation.ErrValidationFailed):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrHoldingNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrQuoteUnavailable):
		utils.SendJSONError(w, err.Error(), http.StatusBadGateway)
	default:
		logger.FromContext(r.Context()).Error("Request failed", "action", action, "error", err)
		utils.SendJSONError(w, "Error "+action, http.StatusInternalServerError)
	}
}
