package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type TransactionHandler struct {
	portfolioService services.PortfolioService
}

func NewTransactionHandler(portfolioService services.PortfolioService) *TransactionHandler {
	return &TransactionHandler{portfolioService: portfolioService}
}

// HandleGetTransactions lists the stored normalized records, optionally
// filtered by a 'year' query parameter ("all" by default).
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	yearToken := r.URL.Query().Get("year")
	if yearToken == "" {
		yearToken = services.YearAll
	}

	records, err := h.portfolioService.Records(yearToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidYear) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error retrieving transactions", "year", yearToken, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving transactions: %v", err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.TransactionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logger.L.Error("Error generating JSON response for transactions", "error", err)
	}
}

// HandleDeleteAllTransactions wipes the transaction store.
func (h *TransactionHandler) HandleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolioService.DeleteAllTransactions(); err != nil {
		logger.L.Error("Error deleting transactions", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error deleting transactions: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "all transactions deleted"})
}
