package mercari

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

func TestParseSampleExport(t *testing.T) {
	csv := `日時,銘柄名,売買区分,精算区分,約定数量,約定レート,約定金額,注文手数料
2023/03/05 18:20,BTC,買,販売所取引,0.002,"7,500,000","15,000",0
2023/03/10 09:00,BTC,売,販売所取引,0.001,"7,800,000","7,800",0
`
	txs, err := NewParser().Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d records, want 2", len(txs))
	}

	buy := txs[0]
	if buy.Source != "mercari" {
		t.Errorf("source = %q, want mercari", buy.Source)
	}
	if buy.CoinSymbol != "BTC" || buy.TradeSide != models.TradeBuy {
		t.Errorf("buy row parsed as %q/%q", buy.CoinSymbol, buy.TradeSide)
	}
	if buy.SettlementCategory != "販売所取引" {
		t.Errorf("category = %q", buy.SettlementCategory)
	}
	if !buy.SettledQuantity.Valid || !buy.SettledQuantity.Decimal.Equal(decimal.RequireFromString("0.002")) {
		t.Errorf("settled quantity = %v", buy.SettledQuantity)
	}
	// 約定金額 normalizes to the fiat settlement amount.
	if !buy.FiatSettlementAmount.Valid || !buy.FiatSettlementAmount.Decimal.Equal(decimal.RequireFromString("15000")) {
		t.Errorf("fiat amount = %v", buy.FiatSettlementAmount)
	}

	if txs[1].TradeSide != models.TradeSell {
		t.Errorf("sell side = %q", txs[1].TradeSide)
	}
}

func TestParseMissingCategoryDefaultsToMarketplace(t *testing.T) {
	csv := `日時,銘柄名,売買区分,約定数量,約定レート,約定金額
2023/03/05 18:20,BTC,買,0.002,7500000,15000
`
	txs, err := NewParser().Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d records, want 1", len(txs))
	}
	if txs[0].SettlementCategory != defaultCategory {
		t.Errorf("category = %q, want %q", txs[0].SettlementCategory, defaultCategory)
	}
}

func TestParseBlankTrailerSkipped(t *testing.T) {
	csv := `日時,銘柄名,売買区分,精算区分,約定数量,約定レート,約定金額,注文手数料
2023/03/05 18:20,BTC,買,販売所取引,0.002,7500000,15000,0
,,,,,,,
`
	txs, err := NewParser().Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d records, want 1", len(txs))
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := NewParser().Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected an error for a file with no header")
	}
}
