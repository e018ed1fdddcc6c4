package gmo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/utils"
)

// Column headers of the GMO Coin trade-history export.
const (
	colTimestamp       = "日時"
	colCoin            = "銘柄名"
	colTradeSide       = "売買区分"
	colCategory        = "精算区分"
	colDirection       = "授受区分"
	colQuantity        = "数量"
	colSettledQuantity = "約定数量"
	colRate            = "約定レート"
	colOrderFee        = "注文手数料"
	colFiatAmount      = "日本円受渡金額"
)

type GMOParser struct{}

func NewParser() *GMOParser {
	return &GMOParser{}
}

func (p *GMOParser) Parse(file io.Reader) ([]models.TransactionRecord, error) {
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

		tx := models.TransactionRecord{
			Source:               "gmo",
			Timestamp:            utils.ParseFeedTime(get(colTimestamp)),
			CoinSymbol:           strings.TrimSpace(get(colCoin)),
			TradeSide:            tradeSide(get(colTradeSide)),
			SettlementCategory:   strings.TrimSpace(get(colCategory)),
			TransferDirection:    transferDirection(get(colDirection)),
			Quantity:             utils.ParseNullDecimal(get(colQuantity)),
			SettledQuantity:      utils.ParseNullDecimal(get(colSettledQuantity)),
			Rate:                 utils.ParseNullDecimal(get(colRate)),
			FiatSettlementAmount: utils.ParseNullDecimal(get(colFiatAmount)),
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

func transferDirection(raw string) string {
	switch strings.TrimSpace(raw) {
	case "預入":
		return models.TransferDeposit
	case "送付":
		return models.TransferWithdrawal
	}
	return models.TransferNone
}
