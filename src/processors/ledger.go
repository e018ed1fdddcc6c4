package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

// SellPolicy controls what happens when a sell exceeds the quantity held.
type SellPolicy int

const (
	// SellClamp caps the sold quantity at the current holdings; the excess is
	// ignored and neither quantity nor cost basis can be driven negative by a
	// sell.
	SellClamp SellPolicy = iota
	// SellAllowNegative applies the full sold quantity even past zero. Source
	// files that report transfers out of scope can produce phantom negative
	// holdings under this policy; it exists so that the two behaviors stay
	// comparable.
	SellAllowNegative
)

// CoinLedgerState is the running weighted-average cost state of one coin.
type CoinLedgerState struct {
	HeldQuantity   decimal.Decimal
	TotalCostBasis decimal.Decimal
}

// Ledger folds classified events into per-coin states. A ledger lives for one
// replay pass; callers that run analyses concurrently each build their own.
type Ledger struct {
	policy SellPolicy
	states map[string]*CoinLedgerState
}

func NewLedger(policy SellPolicy) *Ledger {
	return &Ledger{
		policy: policy,
		states: make(map[string]*CoinLedgerState),
	}
}

func (l *Ledger) state(coin string) *CoinLedgerState {
	st, ok := l.states[coin]
	if !ok {
		st = &CoinLedgerState{}
		l.states[coin] = st
	}
	return st
}

// Apply folds one event into its coin's state and returns the realized profit
// of the event. Only an honored sell realizes anything; every other kind
// returns zero.
func (l *Ledger) Apply(ev Event) decimal.Decimal {
	st := l.state(ev.CoinSymbol)
	switch ev.Kind {
	case KindStakingDeposit, KindStakingFee:
		st.HeldQuantity = st.HeldQuantity.Add(ev.QuantityDelta)
	case KindFeeRebate:
		st.TotalCostBasis = st.TotalCostBasis.Add(ev.CostDelta)
	case KindBuy:
		st.HeldQuantity = st.HeldQuantity.Add(ev.QuantityDelta)
		st.TotalCostBasis = st.TotalCostBasis.Add(ev.CostDelta)
	case KindSell:
		return l.applySell(st, ev)
	}
	return decimal.Zero
}

func (l *Ledger) applySell(st *CoinLedgerState, ev Event) decimal.Decimal {
	if st.HeldQuantity.Sign() <= 0 {
		// Nothing held: the sell moves no cost and realizes no profit.
		return decimal.Zero
	}

	qtySold := ev.QuantityDelta.Neg()
	if l.policy == SellClamp && qtySold.GreaterThan(st.HeldQuantity) {
		qtySold = st.HeldQuantity
	}

	// The average cost divisor is the quantity before this sell is applied,
	// i.e. it still includes the units being removed.
	avgCost := st.TotalCostBasis.Div(st.HeldQuantity)
	costOfSold := avgCost.Mul(qtySold)

	st.HeldQuantity = st.HeldQuantity.Sub(qtySold)
	st.TotalCostBasis = st.TotalCostBasis.Sub(costOfSold)
	return ev.Proceeds.Sub(costOfSold)
}

// Analyze replays an already-filtered record window through a fresh ledger and
// returns one snapshot per coin seen. Realized profit is what the window alone
// shows; holdings carried from outside the window are not visible here, which
// makes these numbers deliberately different from a full-history replay.
func Analyze(records []models.TransactionRecord, prices map[string]decimal.Decimal, policy SellPolicy) map[string]models.HoldingsSnapshot {
	ledger := NewLedger(policy)
	realized := make(map[string]decimal.Decimal)

	for _, rec := range sortChronological(records) {
		ev, ok := Classify(rec)
		if !ok {
			continue
		}
		realized[ev.CoinSymbol] = realized[ev.CoinSymbol].Add(ledger.Apply(ev))
	}

	out := make(map[string]models.HoldingsSnapshot, len(ledger.states))
	for coin, st := range ledger.states {
		price := prices[coin]
		value := st.HeldQuantity.Mul(price)
		avg := decimal.Zero
		if st.HeldQuantity.Sign() > 0 {
			avg = st.TotalCostBasis.Div(st.HeldQuantity)
		}
		out[coin] = models.HoldingsSnapshot{
			Principal:        st.TotalCostBasis,
			Quantity:         st.HeldQuantity,
			AvgPrice:         avg,
			CurrentValue:     value,
			UnrealizedProfit: value.Sub(st.TotalCostBasis),
			RealizedProfit:   realized[coin],
		}
	}
	return out
}

// YearlyProfit replays the entire history in timestamp order, carrying ledger
// state across year boundaries, and attributes each sell's realized profit to
// the calendar year of the sale. Records with no parsable timestamp have no
// place in the chronology and are skipped.
func YearlyProfit(records []models.TransactionRecord, policy SellPolicy) (map[int]decimal.Decimal, map[int]map[string]decimal.Decimal) {
	ledger := NewLedger(policy)
	totals := make(map[int]decimal.Decimal)
	byCoin := make(map[int]map[string]decimal.Decimal)

	for _, rec := range sortChronological(records) {
		if rec.Timestamp == nil {
			continue
		}
		ev, ok := Classify(rec)
		if !ok {
			continue
		}
		profit := ledger.Apply(ev)
		if ev.Kind != KindSell {
			continue
		}
		year := rec.Timestamp.Year()
		totals[year] = totals[year].Add(profit)
		if byCoin[year] == nil {
			byCoin[year] = make(map[string]decimal.Decimal)
		}
		byCoin[year][ev.CoinSymbol] = byCoin[year][ev.CoinSymbol].Add(profit)
	}
	return totals, byCoin
}

// sortChronological returns a stably sorted copy, oldest first. Records with
// no timestamp sort before everything else and keep their input order, so the
// unfiltered snapshot still sees them.
func sortChronological(records []models.TransactionRecord) []models.TransactionRecord {
	sorted := make([]models.TransactionRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Timestamp, sorted[j].Timestamp
		if ti == nil {
			return tj != nil
		}
		if tj == nil {
			return false
		}
		return ti.Before(*tj)
	})
	return sorted
}
