package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/parsers"
	"github.com/username/cryptofolio/src/utils"
)

// Invalidator is the slice of PortfolioService the importer needs: imports
// must drop memoized analysis results.
type Invalidator interface {
	InvalidateCache()
}

type importServiceImpl struct {
	invalidator Invalidator
}

func NewImportService(invalidator Invalidator) ImportService {
	return &importServiceImpl{invalidator: invalidator}
}

// ProcessUpload parses one trade-history file and inserts its records,
// skipping rows already stored (same content hash). Each call is one import
// batch with its own id.
func (s *importServiceImpl) ProcessUpload(fileReader io.Reader, source string) (*ImportResult, error) {
	startTime := time.Now()
	importID := uuid.NewString()
	logger.L.Info("ProcessUpload START", "source", source, "importID", importID)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	records, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result := &ImportResult{ImportID: importID, Source: source, Parsed: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (source, txn_time, coin_symbol, trade_side, settlement_category, transfer_direction, quantity, settled_quantity, rate, fiat_settlement_amount, order_fee, import_id, hash_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var txnTime string
		if rec.Timestamp != nil {
			txnTime = rec.Timestamp.Format(dbTimeFormat)
		}
		hashID := generateHash(rec)
		_, err := stmt.Exec(rec.Source, txnTime, rec.CoinSymbol, rec.TradeSide,
			rec.SettlementCategory, rec.TransferDirection,
			utils.NullDecimalString(rec.Quantity), utils.NullDecimalString(rec.SettledQuantity),
			utils.NullDecimalString(rec.Rate), utils.NullDecimalString(rec.FiatSettlementAmount),
			utils.NullDecimalString(rec.OrderFee), importID, hashID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping duplicate transaction on upload", "hashID", hashID)
				result.Duplicates++
				continue
			}
			return nil, fmt.Errorf("error inserting transaction (coin %s): %w", rec.CoinSymbol, err)
		}
		result.Inserted++
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transactions: %w", err)
	}

	s.invalidator.InvalidateCache()
	logger.L.Info("ProcessUpload END", "source", source, "importID", importID,
		"parsed", result.Parsed, "inserted", result.Inserted, "duplicates", result.Duplicates,
		"duration", time.Since(startTime))
	return result, nil
}

// ImportDirectory ingests every CSV in a directory with the given source's
// parser. A missing directory is not an error; a per-file failure is logged
// and skipped so one bad export does not block the rest.
func (s *importServiceImpl) ImportDirectory(dir string, source string) ([]*ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.L.Info("Data directory does not exist, skipping", "dir", dir, "source", source)
			return nil, nil
		}
		return nil, fmt.Errorf("error reading data directory %s: %w", dir, err)
	}

	var results []*ImportResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		file, err := os.Open(path)
		if err != nil {
			logger.L.Error("Failed to open data file", "path", path, "error", err)
			continue
		}
		result, err := s.ProcessUpload(file, source)
		file.Close()
		if err != nil {
			logger.L.Error("Failed to import data file", "path", path, "error", err)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// generateHash fingerprints a record by its source content so that re-imported
// files dedupe cleanly.
func generateHash(rec models.TransactionRecord) string {
	var txnTime string
	if rec.Timestamp != nil {
		txnTime = rec.Timestamp.Format(time.RFC3339)
	}
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		rec.Source, txnTime, rec.CoinSymbol, rec.TradeSide, rec.SettlementCategory,
		rec.TransferDirection, utils.NullDecimalString(rec.Quantity),
		utils.NullDecimalString(rec.SettledQuantity), utils.NullDecimalString(rec.Rate),
		utils.NullDecimalString(rec.FiatSettlementAmount), utils.NullDecimalString(rec.OrderFee))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
