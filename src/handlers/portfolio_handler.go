package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/services"
	"github.com/username/cryptofolio/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

type analysisRequest struct {
	Year   string                     `json:"year"`
	Prices map[string]decimal.Decimal `json:"prices"`
}

// HandleAnalyze runs the windowed snapshot for one year token at the prices
// supplied in the request body.
func (h *PortfolioHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Year == "" {
		req.Year = services.YearAll
	}
	if req.Prices == nil {
		req.Prices = map[string]decimal.Decimal{}
	}

	snapshots, err := h.portfolioService.Analyze(req.Year, req.Prices)
	if err != nil {
		if errors.Is(err, services.ErrInvalidYear) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error running analysis", "year", req.Year, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error running analysis: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshots)
}

// HandleYearlyProfit serves the chronological-replay profit figures with ETag
// support; the result only changes when the stored records do.
func (h *PortfolioHandler) HandleYearlyProfit(w http.ResponseWriter, r *http.Request) {
	result, err := h.portfolioService.YearlyProfit()
	if err != nil {
		logger.L.Error("Error computing yearly profit", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error computing yearly profit: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(result)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for yearly profit", "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error or empty ETag")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error generating JSON response for yearly profit", "error", err)
	}
}

// HandleDistribution serves the historical buy-lot distribution of one coin.
func (h *PortfolioHandler) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	coin := r.URL.Query().Get("coin")
	if coin == "" {
		utils.SendJSONError(w, "Missing 'coin' query parameter", http.StatusBadRequest)
		return
	}
	currentPrice := decimal.Zero
	if raw := r.URL.Query().Get("current_price"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Invalid 'current_price' value: %q", raw), http.StatusBadRequest)
			return
		}
		currentPrice = parsed
	}

	dist, err := h.portfolioService.Distribution(coin, currentPrice)
	if err != nil {
		if errors.Is(err, services.ErrUnknownCoin) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error computing distribution", "coin", coin, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error computing distribution: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dist)
}

type scenarioRequest struct {
	Coin               string              `json:"coin"`
	CurrentPrice       decimal.Decimal     `json:"current_price"`
	AdditionalQuantity decimal.NullDecimal `json:"additional_quantity"`
	AdditionalAmount   decimal.NullDecimal `json:"additional_amount"`
}

// HandleScenario projects an additional purchase, by quantity or by fiat
// amount depending on which field the request carries.
func (h *PortfolioHandler) HandleScenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Coin == "" {
		utils.SendJSONError(w, "Missing 'coin' field", http.StatusBadRequest)
		return
	}

	var (
		result interface{}
		err    error
	)
	switch {
	case req.AdditionalQuantity.Valid:
		result, err = h.portfolioService.Scenario(req.Coin, req.CurrentPrice, req.AdditionalQuantity.Decimal)
	case req.AdditionalAmount.Valid:
		result, err = h.portfolioService.ScenarioByAmount(req.Coin, req.CurrentPrice, req.AdditionalAmount.Decimal)
	default:
		utils.SendJSONError(w, "Provide 'additional_quantity' or 'additional_amount'", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, services.ErrUnknownCoin) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error computing scenario", "coin", req.Coin, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error computing scenario: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleGetYears lists the selectable year tokens.
func (h *PortfolioHandler) HandleGetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.portfolioService.Years()
	if err != nil {
		logger.L.Error("Error listing years", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error listing years: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(years)
}

// HandleGetCoins lists the traded coin symbols.
func (h *PortfolioHandler) HandleGetCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := h.portfolioService.Coins()
	if err != nil {
		logger.L.Error("Error listing coins", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error listing coins: %v", err), http.StatusInternalServerError)
		return
	}
	if coins == nil {
		coins = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(coins)
}
