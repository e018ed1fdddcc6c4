package services

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/processors"
	"github.com/username/cryptofolio/src/utils"
)

const (
	// Long-lived caches, invalidated explicitly on import/delete.
	ckAllRecords   = "res_all_records"
	ckYearlyProfit = "res_yearly_profit"
	ckDistribution = "res_distribution_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// dbTimeFormat keeps stored timestamps lexically sortable.
const dbTimeFormat = "2006-01-02 15:04:05"

type portfolioServiceImpl struct {
	reportCache *cache.Cache
	policy      processors.SellPolicy
}

func NewPortfolioService(reportCache *cache.Cache, policy processors.SellPolicy) PortfolioService {
	return &portfolioServiceImpl{
		reportCache: reportCache,
		policy:      policy,
	}
}

// InvalidateCache clears all memoized results, forcing a rebuild from the
// database on the next request.
func (s *portfolioServiceImpl) InvalidateCache() {
	s.reportCache.Flush()
	logger.L.Info("Invalidated portfolio caches")
}

// Records returns the normalized records for one year token ("all" or an
// integer year). Rows with no parsable timestamp appear only under "all".
func (s *portfolioServiceImpl) Records(yearToken string) ([]models.TransactionRecord, error) {
	all, err := s.fetchAllRecords()
	if err != nil {
		return nil, err
	}
	if yearToken == YearAll || yearToken == "" {
		return all, nil
	}
	year, err := strconv.Atoi(yearToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidYear, yearToken)
	}
	var filtered []models.TransactionRecord
	for _, rec := range all {
		if rec.Timestamp != nil && rec.Timestamp.Year() == year {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// Years lists the distinct calendar years seen in the data, ascending, with
// the "all" sentinel appended.
func (s *portfolioServiceImpl) Years() ([]string, error) {
	all, err := s.fetchAllRecords()
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	for _, rec := range all {
		if rec.Timestamp != nil {
			seen[rec.Timestamp.Year()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	out := make([]string, 0, len(years)+1)
	for _, y := range years {
		out = append(out, strconv.Itoa(y))
	}
	return append(out, YearAll), nil
}

// Coins lists the distinct traded coin symbols, sorted, fiat excluded.
func (s *portfolioServiceImpl) Coins() ([]string, error) {
	all, err := s.fetchAllRecords()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, rec := range all {
		if rec.CoinSymbol != "" && rec.CoinSymbol != models.FiatSymbol {
			seen[rec.CoinSymbol] = true
		}
	}
	coins := make([]string, 0, len(seen))
	for c := range seen {
		coins = append(coins, c)
	}
	sort.Strings(coins)
	return coins, nil
}

// Analyze runs the windowed snapshot over the selected year. Prices missing a
// coin value it at zero.
func (s *portfolioServiceImpl) Analyze(yearToken string, prices map[string]decimal.Decimal) (map[string]models.HoldingsSnapshot, error) {
	records, err := s.Records(yearToken)
	if err != nil {
		return nil, err
	}
	return processors.Analyze(records, prices, s.policy), nil
}

// YearlyProfit runs the full-history chronological replay. The result depends
// only on the stored records, so it is cached until the next import.
func (s *portfolioServiceImpl) YearlyProfit() (*YearlyProfitResult, error) {
	if cached, found := s.reportCache.Get(ckYearlyProfit); found {
		logger.L.Debug("Cache hit for yearly profit")
		return cached.(*YearlyProfitResult), nil
	}
	all, err := s.fetchAllRecords()
	if err != nil {
		return nil, err
	}
	totals, byCoin := processors.YearlyProfit(all, s.policy)
	result := &YearlyProfitResult{Totals: totals, ByCoin: byCoin}
	s.reportCache.Set(ckYearlyProfit, result, cache.NoExpiration)
	return result, nil
}

func (s *portfolioServiceImpl) Distribution(coin string, currentPrice decimal.Decimal) (*models.DistributionResult, error) {
	if coin == "" || coin == models.FiatSymbol {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCoin, coin)
	}
	cacheKey := fmt.Sprintf(ckDistribution, coin)
	if cached, found := s.reportCache.Get(cacheKey); found {
		// Lots are price-independent; only the valuation fields change.
		dist := cached.(models.DistributionResult)
		dist.CurrentPrice = currentPrice
		dist.CurrentValue = dist.TotalQuantity.Mul(currentPrice)
		return &dist, nil
	}
	all, err := s.fetchAllRecords()
	if err != nil {
		return nil, err
	}
	dist := processors.Distribution(all, coin, currentPrice)
	s.reportCache.Set(cacheKey, dist, cache.NoExpiration)
	return &dist, nil
}

func (s *portfolioServiceImpl) Scenario(coin string, currentPrice, additionalQuantity decimal.Decimal) (*models.ScenarioResult, error) {
	dist, err := s.Distribution(coin, currentPrice)
	if err != nil {
		return nil, err
	}
	result := processors.Scenario(*dist, additionalQuantity)
	return &result, nil
}

func (s *portfolioServiceImpl) ScenarioByAmount(coin string, currentPrice, additionalAmount decimal.Decimal) (*models.ScenarioResult, error) {
	dist, err := s.Distribution(coin, currentPrice)
	if err != nil {
		return nil, err
	}
	result := processors.ScenarioByAmount(*dist, additionalAmount)
	return &result, nil
}

func (s *portfolioServiceImpl) DeleteAllTransactions() error {
	if _, err := database.DB.Exec("DELETE FROM transactions"); err != nil {
		return fmt.Errorf("error deleting transactions: %w", err)
	}
	s.InvalidateCache()
	logger.L.Info("Deleted all transactions")
	return nil
}

func (s *portfolioServiceImpl) fetchAllRecords() ([]models.TransactionRecord, error) {
	if cached, found := s.reportCache.Get(ckAllRecords); found {
		logger.L.Debug("Cache hit for all records")
		return cached.([]models.TransactionRecord), nil
	}

	logger.L.Debug("Fetching transaction records from DB")
	rows, err := database.DB.Query(`SELECT id, source, txn_time, coin_symbol, trade_side, settlement_category, transfer_direction, quantity, settled_quantity, rate, fiat_settlement_amount, order_fee, import_id, hash_id FROM transactions ORDER BY txn_time ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var records []models.TransactionRecord
	for rows.Next() {
		var rec models.TransactionRecord
		var txnTime, quantity, settledQuantity, rate, fiatAmount, orderFee, importID, hashID sql.NullString
		scanErr := rows.Scan(&rec.ID, &rec.Source, &txnTime, &rec.CoinSymbol, &rec.TradeSide,
			&rec.SettlementCategory, &rec.TransferDirection, &quantity, &settledQuantity,
			&rate, &fiatAmount, &orderFee, &importID, &hashID)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", scanErr)
		}
		if txnTime.Valid && txnTime.String != "" {
			if t, parseErr := time.Parse(dbTimeFormat, txnTime.String); parseErr == nil {
				rec.Timestamp = &t
			}
		}
		rec.Quantity = utils.ParseNullDecimal(quantity.String)
		rec.SettledQuantity = utils.ParseNullDecimal(settledQuantity.String)
		rec.Rate = utils.ParseNullDecimal(rate.String)
		rec.FiatSettlementAmount = utils.ParseNullDecimal(fiatAmount.String)
		rec.OrderFee = utils.ParseNullDecimal(orderFee.String)
		rec.ImportID = importID.String
		rec.HashID = hashID.String
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}

	s.reportCache.Set(ckAllRecords, records, cache.NoExpiration)
	logger.L.Info("DB fetch complete", "recordCount", len(records))
	return records, nil
}
