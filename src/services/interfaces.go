package services

import (
	"errors"
	"io"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

var (
	ErrParsingFailed = errors.New("file parsing failed")
	ErrInvalidYear   = errors.New("invalid year token")
	ErrUnknownCoin   = errors.New("unknown coin symbol")
)

// YearAll is the sentinel year token selecting the full history.
const YearAll = "all"

// ImportResult summarizes one processed upload or directory import.
type ImportResult struct {
	ImportID   string `json:"import_id"`
	Source     string `json:"source"`
	Parsed     int    `json:"parsed"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

// YearlyProfitResult carries both realized-profit mappings produced by the
// chronological replay.
type YearlyProfitResult struct {
	Totals map[int]decimal.Decimal            `json:"totals"`
	ByCoin map[int]map[string]decimal.Decimal `json:"by_coin"`
}

// ImportService ingests trade-history files into the transaction store.
type ImportService interface {
	ProcessUpload(fileReader io.Reader, source string) (*ImportResult, error)
	ImportDirectory(dir string, source string) ([]*ImportResult, error)
}

// PortfolioService exposes the analysis operations over the stored records.
// Prices are always an explicit parameter; the service holds no ambient
// price state between calls.
type PortfolioService interface {
	Records(yearToken string) ([]models.TransactionRecord, error)
	Years() ([]string, error)
	Coins() ([]string, error)
	Analyze(yearToken string, prices map[string]decimal.Decimal) (map[string]models.HoldingsSnapshot, error)
	YearlyProfit() (*YearlyProfitResult, error)
	Distribution(coin string, currentPrice decimal.Decimal) (*models.DistributionResult, error)
	Scenario(coin string, currentPrice, additionalQuantity decimal.Decimal) (*models.ScenarioResult, error)
	ScenarioByAmount(coin string, currentPrice, additionalAmount decimal.Decimal) (*models.ScenarioResult, error)
	DeleteAllTransactions() error
	InvalidateCache()
}

// CheckpointService appends to and reads back the durable price/metrics log.
type CheckpointService interface {
	Save(prices map[string]decimal.Decimal) (*models.Checkpoint, error)
	History() ([]models.Checkpoint, error)
}
