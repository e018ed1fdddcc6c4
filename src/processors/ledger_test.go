package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

func TestAnalyzeBuyThenValuation(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "2023-01-10 12:00", "0.5", "5000000", "500"),
	}
	prices := map[string]decimal.Decimal{"BTC": dec("6000000")}

	out := Analyze(records, prices, SellClamp)
	snap, ok := out["BTC"]
	if !ok {
		t.Fatal("no BTC snapshot")
	}
	if !snap.Principal.Equal(dec("2500500")) {
		t.Errorf("principal = %s, want 2500500", snap.Principal)
	}
	if !snap.Quantity.Equal(dec("0.5")) {
		t.Errorf("quantity = %s, want 0.5", snap.Quantity)
	}
	if !snap.AvgPrice.Equal(dec("5001000")) {
		t.Errorf("avg price = %s, want 5001000", snap.AvgPrice)
	}
	if !snap.CurrentValue.Equal(dec("3000000")) {
		t.Errorf("current value = %s, want 3000000", snap.CurrentValue)
	}
	if !snap.UnrealizedProfit.Equal(dec("499500")) {
		t.Errorf("unrealized = %s, want 499500", snap.UnrealizedProfit)
	}
	if !snap.RealizedProfit.IsZero() {
		t.Errorf("realized = %s, want 0", snap.RealizedProfit)
	}
}

func TestAnalyzeBuyThenSell(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "2023-01-10 12:00", "0.5", "5000000", "500"),
		spotSell("BTC", "2023-02-01 12:00", "0.2", "6000000", "1300000"),
	}
	prices := map[string]decimal.Decimal{"BTC": dec("6000000")}

	snap := Analyze(records, prices, SellClamp)["BTC"]
	// cost of sold = 0.2 * 5001000 = 1000200, realized = 1300000 - 1000200
	if !snap.RealizedProfit.Equal(dec("299800")) {
		t.Errorf("realized = %s, want 299800", snap.RealizedProfit)
	}
	if !snap.Quantity.Equal(dec("0.3")) {
		t.Errorf("quantity = %s, want 0.3", snap.Quantity)
	}
	if !snap.Principal.Equal(dec("1500300")) {
		t.Errorf("principal = %s, want 1500300", snap.Principal)
	}
	// Average price is unchanged by a sell.
	if !snap.AvgPrice.Equal(dec("5001000")) {
		t.Errorf("avg price = %s, want 5001000", snap.AvgPrice)
	}
}

func TestAnalyzeWeightedAverageAcrossBuys(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "2023-01-01 00:00", "0.5", "4000000", "0"),
		spotBuy("BTC", "2023-02-01 00:00", "0.3", "5000000", "0"),
		spotBuy("BTC", "2023-03-01 00:00", "0.2", "6500000", "0"),
	}
	snap := Analyze(records, nil, SellClamp)["BTC"]
	// (0.5*4M + 0.3*5M + 0.2*6.5M) / 1.0
	if !snap.Principal.Equal(dec("4800000")) {
		t.Errorf("principal = %s, want 4800000", snap.Principal)
	}
	if !snap.AvgPrice.Equal(dec("4800000")) {
		t.Errorf("avg price = %s, want 4800000", snap.AvgPrice)
	}
}

func TestAnalyzeStakingRewardLowersAverage(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("SOL", "2023-03-01 09:00", "10", "10000", "0"),
		stakingDeposit("SOL", "2023-04-01 09:00", "2"),
	}
	snap := Analyze(records, nil, SellClamp)["SOL"]
	if !snap.Quantity.Equal(dec("12")) {
		t.Errorf("quantity = %s, want 12", snap.Quantity)
	}
	// Principal is untouched by the zero-cost reward, so the average drops.
	if !snap.Principal.Equal(dec("100000")) {
		t.Errorf("principal = %s, want 100000", snap.Principal)
	}
	want := dec("100000").Div(dec("12"))
	if !snap.AvgPrice.Equal(want) {
		t.Errorf("avg price = %s, want %s", snap.AvgPrice, want)
	}
}

func TestAnalyzeFeeRebateReducesPrincipal(t *testing.T) {
	rebate := models.TransactionRecord{
		CoinSymbol:           "BTC",
		Timestamp:            ts("2023-01-15 10:00"),
		SettlementCategory:   markerSpotFeeRebate,
		FiatSettlementAmount: nd("500"),
	}
	records := []models.TransactionRecord{
		spotBuy("BTC", "2023-01-10 12:00", "0.5", "5000000", "500"),
		rebate,
	}
	snap := Analyze(records, nil, SellClamp)["BTC"]
	if !snap.Principal.Equal(dec("2500000")) {
		t.Errorf("principal = %s, want 2500000", snap.Principal)
	}
	if !snap.Quantity.Equal(dec("0.5")) {
		t.Errorf("quantity = %s, want 0.5", snap.Quantity)
	}
}

func TestSellClampCapsAtHoldings(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("ETH", "2023-01-01 00:00", "1", "200000", "0"),
		spotSell("ETH", "2023-01-02 00:00", "3", "250000", "750000"),
	}
	snap := Analyze(records, nil, SellClamp)["ETH"]
	if !snap.Quantity.IsZero() {
		t.Errorf("quantity = %s, want 0 after clamped sell", snap.Quantity)
	}
	if !snap.Principal.IsZero() {
		t.Errorf("principal = %s, want 0 after clamped sell", snap.Principal)
	}
	// The full proceeds still count against the cost of what was actually held.
	if !snap.RealizedProfit.Equal(dec("550000")) {
		t.Errorf("realized = %s, want 750000-200000 = 550000", snap.RealizedProfit)
	}
}

func TestSellAllowNegativeGoesPastZero(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("ETH", "2023-01-01 00:00", "1", "200000", "0"),
		spotSell("ETH", "2023-01-02 00:00", "3", "250000", "750000"),
	}
	snap := Analyze(records, nil, SellAllowNegative)["ETH"]
	if !snap.Quantity.Equal(dec("-2")) {
		t.Errorf("quantity = %s, want -2", snap.Quantity)
	}
	// cost of sold = 3 * 200000 = 600000, realized = 750000 - 600000
	if !snap.RealizedProfit.Equal(dec("150000")) {
		t.Errorf("realized = %s, want 150000", snap.RealizedProfit)
	}
	if !snap.AvgPrice.IsZero() {
		t.Errorf("avg price = %s, want 0 for non-positive holdings", snap.AvgPrice)
	}
}

func TestSellWithNothingHeldIsIgnored(t *testing.T) {
	records := []models.TransactionRecord{
		spotSell("BTC", "2023-01-01 00:00", "0.1", "5000000", "500000"),
	}
	for _, policy := range []SellPolicy{SellClamp, SellAllowNegative} {
		snap := Analyze(records, nil, policy)["BTC"]
		if !snap.RealizedProfit.IsZero() {
			t.Errorf("policy %v: realized = %s, want 0", policy, snap.RealizedProfit)
		}
		if !snap.Quantity.IsZero() {
			t.Errorf("policy %v: quantity = %s, want 0", policy, snap.Quantity)
		}
	}
}

func TestAnalyzeAppliesRecordsInTimestampOrder(t *testing.T) {
	// The sell arrives first in input order but later buys must not feed it.
	records := []models.TransactionRecord{
		spotSell("BTC", "2023-06-01 00:00", "0.5", "6000000", "3000000"),
		spotBuy("BTC", "2023-01-01 00:00", "0.5", "5000000", "0"),
	}
	snap := Analyze(records, nil, SellClamp)["BTC"]
	if !snap.RealizedProfit.Equal(dec("500000")) {
		t.Errorf("realized = %s, want 500000", snap.RealizedProfit)
	}
	if !snap.Quantity.IsZero() {
		t.Errorf("quantity = %s, want 0", snap.Quantity)
	}
}

func TestYearlyProfitAttributesToSaleYear(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "2022-12-01 00:00", "1", "2000000", "0"),
		spotSell("BTC", "2023-01-15 00:00", "0.5", "3000000", "1500000"),
		spotSell("BTC", "2024-02-15 00:00", "0.5", "4000000", "2000000"),
	}
	totals, byCoin := YearlyProfit(records, SellClamp)

	if !totals[2023].Equal(dec("500000")) {
		t.Errorf("2023 total = %s, want 500000", totals[2023])
	}
	if !totals[2024].Equal(dec("1000000")) {
		t.Errorf("2024 total = %s, want 1000000", totals[2024])
	}
	if _, ok := totals[2022]; ok {
		t.Error("2022 has no sells and must not appear")
	}
	if !byCoin[2023]["BTC"].Equal(dec("500000")) {
		t.Errorf("2023 BTC = %s, want 500000", byCoin[2023]["BTC"])
	}
}

// The per-year totals must sum to the realized profit of a single full replay.
func TestYearlyProfitSumsToFullReplay(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "2022-01-01 00:00", "1", "2000000", "1000"),
		stakingDeposit("BTC", "2022-06-01 00:00", "0.1"),
		spotSell("BTC", "2022-12-01 00:00", "0.3", "2500000", "749000"),
		spotBuy("BTC", "2023-02-01 00:00", "0.5", "3000000", "2000"),
		spotSell("BTC", "2023-08-01 00:00", "0.6", "3500000", "2099000"),
		spotSell("BTC", "2024-03-01 00:00", "0.7", "4000000", ""),
	}
	totals, _ := YearlyProfit(records, SellClamp)
	var yearSum decimal.Decimal
	for _, p := range totals {
		yearSum = yearSum.Add(p)
	}

	snap := Analyze(records, nil, SellClamp)["BTC"]
	if !yearSum.Equal(snap.RealizedProfit) {
		t.Errorf("sum of yearly profits %s != full-replay realized %s", yearSum, snap.RealizedProfit)
	}
}

func TestYearlyProfitSkipsTimestamplessRecords(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "", "1", "2000000", "0"),
		spotSell("BTC", "2023-01-15 00:00", "1", "3000000", "3000000"),
	}
	totals, _ := YearlyProfit(records, SellClamp)
	// The timestampless buy never enters the replay, so the sell finds an
	// empty ledger and realizes nothing.
	if len(totals) != 0 {
		t.Errorf("totals = %v, want empty", totals)
	}
}

func TestAnalyzeIncludesTimestamplessRecords(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "", "1", "2000000", "0"),
	}
	snap := Analyze(records, nil, SellClamp)["BTC"]
	if !snap.Quantity.Equal(dec("1")) {
		t.Errorf("quantity = %s, want 1", snap.Quantity)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	records := []models.TransactionRecord{
		spotBuy("BTC", "2023-01-10 12:00", "0.5", "5000000", "500"),
		spotSell("BTC", "2023-02-01 12:00", "0.2", "6000000", "1300000"),
		stakingDeposit("BTC", "2023-03-01 12:00", "0.01"),
	}
	prices := map[string]decimal.Decimal{"BTC": dec("6000000")}

	first := Analyze(records, prices, SellClamp)["BTC"]
	second := Analyze(records, prices, SellClamp)["BTC"]
	if !first.Principal.Equal(second.Principal) ||
		!first.Quantity.Equal(second.Quantity) ||
		!first.RealizedProfit.Equal(second.RealizedProfit) {
		t.Errorf("repeated analysis diverged: %+v vs %+v", first, second)
	}
}

func TestSortChronologicalKeepsTimestamplessFirst(t *testing.T) {
	a := spotBuy("BTC", "", "1", "100", "0")
	a.ID = 1
	b := spotBuy("BTC", "", "2", "100", "0")
	b.ID = 2
	c := spotBuy("BTC", "2023-01-01 00:00", "3", "100", "0")

	sorted := sortChronological([]models.TransactionRecord{c, a, b})
	if sorted[0].ID != 1 || sorted[1].ID != 2 {
		t.Errorf("timestampless records must lead in input order, got %d,%d", sorted[0].ID, sorted[1].ID)
	}
	if sorted[2].Timestamp == nil {
		t.Error("timestamped record must sort last")
	}
}
