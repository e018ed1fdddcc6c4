package mercari

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/utils"
)

// Column headers of the Mercari bitcoin-service export. The settlement amount
// lands in 約定金額 here, not 日本円受渡金額 as in the exchange export; both
// normalize to the record's fiat settlement amount.
const (
	colTimestamp       = "日時"
	colCoin            = "銘柄名"
	colTradeSide       = "売買区分"
	colCategory        = "精算区分"
	colSettledQuantity = "約定数量"
	colRate            = "約定レート"
	colSettledAmount   = "約定金額"
	colOrderFee        = "注文手数料"
)

// Mercari rows settle against the in-app marketplace; files that omit the
// category column get this label so classification stays uniform.
const defaultCategory = "販売所取引"

type MercariParser struct{}

func NewParser() *MercariParser {
	return &MercariParser{}
}

func (p *MercariParser) Parse(file io.Reader) ([]models.TransactionRecord, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx := headerIndex(header)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	var txs []models.TransactionRecord
	for _, row := range rows {
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		category := strings.TrimSpace(get(colCategory))
		if category == "" {
			category = defaultCategory
		}

		tx := models.TransactionRecord{
			Source:               "mercari",
			Timestamp:            utils.ParseFeedTime(get(colTimestamp)),
			CoinSymbol:           strings.TrimSpace(get(colCoin)),
			TradeSide:            tradeSide(get(colTradeSide)),
			SettlementCategory:   category,
			SettledQuantity:      utils.ParseNullDecimal(get(colSettledQuantity)),
			Rate:                 utils.ParseNullDecimal(get(colRate)),
			FiatSettlementAmount: utils.ParseNullDecimal(get(colSettledAmount)),
			OrderFee:             utils.ParseNullDecimal(get(colOrderFee)),
		}
		if tx.Timestamp == nil && tx.CoinSymbol == "" {
			continue // trailing blank line
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func tradeSide(raw string) string {
	switch strings.TrimSpace(raw) {
	case "買":
		return models.TradeBuy
	case "売":
		return models.TradeSell
	}
	return models.TradeNone
}
