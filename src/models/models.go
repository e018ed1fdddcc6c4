package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiatSymbol is the settlement currency of every feed. Rows carrying it as a
// coin symbol are cash movements, not holdings, and are excluded everywhere.
const FiatSymbol = "JPY"

// Trade side values as stored on a TransactionRecord.
const (
	TradeBuy  = "BUY"
	TradeSell = "SELL"
	TradeNone = ""
)

// Transfer direction values (staking deposits/withdrawals only).
const (
	TransferDeposit    = "DEPOSIT"
	TransferWithdrawal = "WITHDRAWAL"
	TransferNone       = ""
)

// TransactionRecord is the unified representation of one row from an exchange
// or marketplace trade-history file. Each parser populates as many fields as
// the source provides; absent or unparsable values stay null rather than
// failing the row.
type TransactionRecord struct {
	ID     int64  `json:"id"`
	Source string `json:"source"`

	// Timestamp is nil when the source date could not be parsed. Such rows
	// still classify but are excluded from chronological replay.
	Timestamp *time.Time `json:"timestamp"`

	CoinSymbol         string `json:"coin_symbol"`
	TradeSide          string `json:"trade_side"`
	SettlementCategory string `json:"settlement_category"`
	TransferDirection  string `json:"transfer_direction"`

	Quantity             decimal.NullDecimal `json:"quantity"`
	SettledQuantity      decimal.NullDecimal `json:"settled_quantity"`
	Rate                 decimal.NullDecimal `json:"rate"`
	FiatSettlementAmount decimal.NullDecimal `json:"fiat_settlement_amount"`
	OrderFee             decimal.NullDecimal `json:"order_fee"`

	ImportID string `json:"import_id"`
	HashID   string `json:"hash_id"`
}

// Year returns the calendar year of the record, or 0 when the timestamp is
// unparsable.
func (r *TransactionRecord) Year() int {
	if r.Timestamp == nil {
		return 0
	}
	return r.Timestamp.Year()
}

// HoldingsSnapshot is the per-coin result of one analysis pass.
type HoldingsSnapshot struct {
	Principal        decimal.Decimal `json:"principal"`
	Quantity         decimal.Decimal `json:"quantity"`
	AvgPrice         decimal.Decimal `json:"avg_price"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	UnrealizedProfit decimal.Decimal `json:"unrealized_profit"`
	RealizedProfit   decimal.Decimal `json:"realized_profit"`
}

// Lot is one discrete buy (quantity at a price) contributing to the
// acquisition-price distribution of a coin.
type Lot struct {
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// DistributionResult aggregates the historical buy lots of one coin.
type DistributionResult struct {
	Distribution  []Lot           `json:"distribution"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	CurrentValue  decimal.Decimal `json:"current_value"`
}

// ScenarioLeg is one side (current or projected) of a what-if calculation.
type ScenarioLeg struct {
	Quantity  decimal.Decimal `json:"quantity"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Value     decimal.Decimal `json:"value"`
}

// ScenarioResult is the outcome of projecting one additional buy lot at the
// current price.
type ScenarioResult struct {
	Current ScenarioLeg `json:"current"`
	New     ScenarioLeg `json:"new"`
	Change  ScenarioLeg `json:"change"`
}

// CheckpointMetrics is the derived-holdings half of a checkpoint.
type CheckpointMetrics struct {
	Coins                 map[string]HoldingsSnapshot `json:"coins"`
	TotalPrincipal        decimal.Decimal             `json:"total_principal"`
	TotalValue            decimal.Decimal             `json:"total_value"`
	TotalUnrealizedProfit decimal.Decimal             `json:"total_unrealized_profit"`
	TotalRealizedProfit   decimal.Decimal             `json:"total_realized_profit"`
}

// Checkpoint is one entry of the append-only price/metrics history.
type Checkpoint struct {
	ID        int64                      `json:"id"`
	Timestamp string                     `json:"timestamp"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Metrics   CheckpointMetrics          `json:"metrics"`
}
