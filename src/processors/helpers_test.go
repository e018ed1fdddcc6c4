package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

func nd(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func spotBuy(coin, when, qty, rate, fee string) models.TransactionRecord {
	rec := models.TransactionRecord{
		Source:             "gmo",
		CoinSymbol:         coin,
		TradeSide:          models.TradeBuy,
		SettlementCategory: markerExchangeSpot,
		SettledQuantity:    nd(qty),
		Rate:               nd(rate),
	}
	if when != "" {
		rec.Timestamp = ts(when)
	}
	if fee != "" {
		rec.OrderFee = nd(fee)
	}
	return rec
}

func spotSell(coin, when, qty, rate, settled string) models.TransactionRecord {
	rec := models.TransactionRecord{
		Source:             "gmo",
		CoinSymbol:         coin,
		TradeSide:          models.TradeSell,
		SettlementCategory: markerExchangeSpot,
		SettledQuantity:    nd(qty),
		Rate:               nd(rate),
	}
	if when != "" {
		rec.Timestamp = ts(when)
	}
	if settled != "" {
		rec.FiatSettlementAmount = nd(settled)
	}
	return rec
}

func stakingDeposit(coin, when, qty string) models.TransactionRecord {
	rec := models.TransactionRecord{
		Source:             "gmo",
		CoinSymbol:         coin,
		SettlementCategory: markerStakingTransfer,
		TransferDirection:  models.TransferDeposit,
		Quantity:           nd(qty),
	}
	if when != "" {
		rec.Timestamp = ts(when)
	}
	return rec
}
