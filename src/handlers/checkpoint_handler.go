package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type CheckpointHandler struct {
	checkpointService services.CheckpointService
}

func NewCheckpointHandler(checkpointService services.CheckpointService) *CheckpointHandler {
	return &CheckpointHandler{checkpointService: checkpointService}
}

type saveCheckpointRequest struct {
	Prices map[string]decimal.Decimal `json:"prices"`
}

// HandleSaveCheckpoint appends one price/metrics entry to the history.
func (h *CheckpointHandler) HandleSaveCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req saveCheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Prices) == 0 {
		utils.SendJSONError(w, "Missing 'prices' field", http.StatusBadRequest)
		return
	}

	checkpoint, err := h.checkpointService.Save(req.Prices)
	if err != nil {
		logger.L.Error("Error saving checkpoint", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error saving checkpoint: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(checkpoint)
}

// HandleGetCheckpoints returns the full ordered checkpoint history.
func (h *CheckpointHandler) HandleGetCheckpoints(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := h.checkpointService.History()
	if err != nil {
		logger.L.Error("Error retrieving checkpoints", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving checkpoints: %v", err), http.StatusInternalServerError)
		return
	}
	if checkpoints == nil {
		checkpoints = []models.Checkpoint{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkpoints)
}
