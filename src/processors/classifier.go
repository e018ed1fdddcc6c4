package processors

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

// Category is the settlement category of a record, resolved once from the
// free-text label so that downstream logic can switch exhaustively instead of
// re-matching substrings.
type Category int

const (
	CategoryOther Category = iota
	CategoryStakingTransfer
	CategorySpotFeeRebate
	CategoryMarketplaceTrade
	CategoryExchangeSpotTrade
)

// Settlement category vocabulary of the source feeds.
const (
	markerStakingTransfer = "暗号資産預入・送付"
	markerSpotFeeRebate   = "取引所現物 取引手数料返金"
	markerMarketplace     = "販売所取引"
	markerExchangeSpot    = "取引所現物取引"
)

// Transfer direction vocabulary of the source feeds.
const (
	rawTransferDeposit    = "預入"
	rawTransferWithdrawal = "送付"
)

// ResolveCategory maps a free-text settlement category onto the Category enum.
// The checks run in priority order, which is load-bearing: the labels overlap
// by substring (the fee-rebate label contains the word 取引所現物), so a later
// marker must never be tested before an earlier one.
func ResolveCategory(settlementCategory string) Category {
	switch {
	case strings.Contains(settlementCategory, markerStakingTransfer):
		return CategoryStakingTransfer
	case strings.Contains(settlementCategory, markerSpotFeeRebate):
		return CategorySpotFeeRebate
	case strings.Contains(settlementCategory, markerMarketplace):
		return CategoryMarketplaceTrade
	case strings.Contains(settlementCategory, markerExchangeSpot):
		return CategoryExchangeSpotTrade
	default:
		return CategoryOther
	}
}

// EventKind tags a classified event.
type EventKind int

const (
	KindStakingDeposit EventKind = iota
	KindStakingFee
	KindFeeRebate
	KindBuy
	KindSell
)

func (k EventKind) String() string {
	switch k {
	case KindStakingDeposit:
		return "STAKING_DEPOSIT"
	case KindStakingFee:
		return "STAKING_FEE"
	case KindFeeRebate:
		return "FEE_REBATE"
	case KindBuy:
		return "BUY"
	case KindSell:
		return "SELL"
	}
	return "UNKNOWN"
}

// Event is one record reduced to its ledger effect.
type Event struct {
	CoinSymbol    string
	Timestamp     *time.Time
	Kind          EventKind
	QuantityDelta decimal.Decimal
	CostDelta     decimal.Decimal
	Proceeds      decimal.Decimal // sells only
}

// Classify reduces a raw record to a tagged event, or reports false when the
// record carries no ledger effect. Rows are dropped, never rejected: a fiat
// cash movement, a marketplace sell (no defined cost-basis treatment in the
// source feeds) or a buy with no resolvable quantity all classify to nothing.
func Classify(r models.TransactionRecord) (Event, bool) {
	if r.CoinSymbol == "" || r.CoinSymbol == models.FiatSymbol {
		return Event{}, false
	}

	ev := Event{CoinSymbol: r.CoinSymbol, Timestamp: r.Timestamp}

	switch ResolveCategory(r.SettlementCategory) {
	case CategoryStakingTransfer:
		switch r.TransferDirection {
		case models.TransferDeposit:
			// Staking rewards are acquired at zero cost.
			ev.Kind = KindStakingDeposit
			if q, ok := positive(r.Quantity); ok {
				ev.QuantityDelta = q
			}
			return ev, true
		case models.TransferWithdrawal:
			ev.Kind = KindStakingFee
			if q, ok := positive(r.Quantity); ok {
				ev.QuantityDelta = q.Neg()
			}
			return ev, true
		}
		return Event{}, false

	case CategorySpotFeeRebate:
		// A refunded trading fee reduces the cost basis.
		ev.Kind = KindFeeRebate
		if a, ok := positive(r.FiatSettlementAmount); ok {
			ev.CostDelta = a.Neg()
		}
		return ev, true

	case CategoryMarketplaceTrade:
		if r.TradeSide != models.TradeBuy {
			return Event{}, false
		}
		if !r.FiatSettlementAmount.Valid {
			return Event{}, false
		}
		qty, ok := firstPresent(r.SettledQuantity, r.Quantity)
		if !ok {
			return Event{}, false
		}
		// Marketplace settlement amounts embed the fee; nothing to add.
		ev.Kind = KindBuy
		ev.QuantityDelta = qty
		ev.CostDelta = r.FiatSettlementAmount.Decimal.Abs()
		return ev, true

	case CategoryExchangeSpotTrade:
		qty := orZero(r.SettledQuantity)
		price := orZero(r.Rate)
		fee := orZero(r.OrderFee)
		switch r.TradeSide {
		case models.TradeBuy:
			ev.Kind = KindBuy
			ev.QuantityDelta = qty
			ev.CostDelta = qty.Mul(price).Add(fee)
			return ev, true
		case models.TradeSell:
			ev.Kind = KindSell
			ev.QuantityDelta = qty.Neg()
			// The settled fiat amount already nets the fee; prefer it over
			// quantity times rate.
			if r.FiatSettlementAmount.Valid {
				ev.Proceeds = r.FiatSettlementAmount.Decimal
			} else {
				ev.Proceeds = qty.Mul(price)
			}
			return ev, true
		}
		return Event{}, false
	}

	return Event{}, false
}

func positive(d decimal.NullDecimal) (decimal.Decimal, bool) {
	if d.Valid && d.Decimal.Sign() > 0 {
		return d.Decimal, true
	}
	return decimal.Decimal{}, false
}

func firstPresent(ds ...decimal.NullDecimal) (decimal.Decimal, bool) {
	for _, d := range ds {
		if d.Valid {
			return d.Decimal, true
		}
	}
	return decimal.Decimal{}, false
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if d.Valid {
		return d.Decimal
	}
	return decimal.Zero
}
