package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/services"
	"github.com/username/portfoliotracker/src/utils"
)

const maxHoldingBodyBytes = 64 << 10

type HoldingsHandler struct {
	ledgerService services.LedgerService
}

func NewHoldingsHandler(ledgerService services.LedgerService) *HoldingsHandler {
	return &HoldingsHandler{ledgerService: ledgerService}
}

func decodeHoldingInput(w http.ResponseWriter, r *http.Request) (models.HoldingInput, bool) {
	var input models.HoldingInput
	r.Body = http.MaxBytesReader(w, r.Body, maxHoldingBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return models.HoldingInput{}, false
	}
	return input, true
}

func (h *HoldingsHandler) HandleCreateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	input, ok := decodeHoldingInput(w, r)
	if !ok {
		return
	}
	edit, err := h.ledgerService.CreateHolding(r.Context(), userID, input)
	if err != nil {
		sendServiceError(w, r, err, "creating holding")
		return
	}
	logger.FromContext(r.Context()).Info("Holding created", "groupID", edit.GroupID)
	utils.SendJSON(w, edit.ToVersion(), http.StatusCreated)
}

func (h *HoldingsHandler) HandleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	input, ok := decodeHoldingInput(w, r)
	if !ok {
		return
	}
	edit, err := h.ledgerService.UpdateHolding(r.Context(), userID, groupID, input)
	if err != nil {
		sendServiceError(w, r, err, "updating holding")
		return
	}
	utils.SendJSON(w, edit.ToVersion(), http.StatusOK)
}

func (h *HoldingsHandler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	groupID := chi.URLParam(r, "groupID")
	if _, err := h.ledgerService.DeleteHolding(r.Context(), userID, groupID); err != nil {
		sendServiceError(w, r, err, "deleting holding")
		return
	}
	utils.SendJSON(w, map[string]string{"message": "Holding deleted", "group_id": groupID}, http.StatusOK)
}

func (h *HoldingsHandler) HandleGetHoldingHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	edits, err := h.ledgerService.GroupHistory(r.Context(), userID, chi.URLParam(r, "groupID"))
	if err != nil {
		sendServiceError(w, r, err, "retrieving holding history")
		return
	}
	versions := make([]models.HoldingVersion, 0, len(edits))
	for _, e := range edits {
		versions = append(versions, e.ToVersion())
	}
	utils.SendJSON(w, versions, http.StatusOK)
}
