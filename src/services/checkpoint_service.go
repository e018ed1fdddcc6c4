package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/processors"
)

type checkpointServiceImpl struct {
	portfolio PortfolioService
}

func NewCheckpointService(portfolio PortfolioService) CheckpointService {
	return &checkpointServiceImpl{portfolio: portfolio}
}

// Save analyzes the full history at the given prices, aggregates the result
// into a checkpoint and appends it to the durable log.
func (s *checkpointServiceImpl) Save(prices map[string]decimal.Decimal) (*models.Checkpoint, error) {
	snapshots, err := s.portfolio.Analyze(YearAll, prices)
	if err != nil {
		return nil, err
	}
	checkpoint := processors.BuildCheckpoint(time.Now(), prices, snapshots)

	pricesJSON, err := json.Marshal(checkpoint.Prices)
	if err != nil {
		return nil, fmt.Errorf("error marshaling checkpoint prices: %w", err)
	}
	metricsJSON, err := json.Marshal(checkpoint.Metrics)
	if err != nil {
		return nil, fmt.Errorf("error marshaling checkpoint metrics: %w", err)
	}

	res, err := database.DB.Exec(`INSERT INTO checkpoints (created_at, prices, metrics) VALUES (?, ?, ?)`,
		checkpoint.Timestamp, string(pricesJSON), string(metricsJSON))
	if err != nil {
		return nil, fmt.Errorf("error inserting checkpoint: %w", err)
	}
	if id, idErr := res.LastInsertId(); idErr == nil {
		checkpoint.ID = id
	}

	logger.L.Info("Checkpoint saved", "id", checkpoint.ID, "timestamp", checkpoint.Timestamp)
	return &checkpoint, nil
}

// History returns the full ordered checkpoint log, oldest first.
func (s *checkpointServiceImpl) History() ([]models.Checkpoint, error) {
	rows, err := database.DB.Query(`SELECT id, created_at, prices, metrics FROM checkpoints ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []models.Checkpoint
	for rows.Next() {
		var cp models.Checkpoint
		var pricesJSON, metricsJSON string
		if scanErr := rows.Scan(&cp.ID, &cp.Timestamp, &pricesJSON, &metricsJSON); scanErr != nil {
			return nil, fmt.Errorf("error scanning checkpoint row: %w", scanErr)
		}
		if err := json.Unmarshal([]byte(pricesJSON), &cp.Prices); err != nil {
			logger.L.Warn("Skipping checkpoint with malformed prices", "id", cp.ID, "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(metricsJSON), &cp.Metrics); err != nil {
			logger.L.Warn("Skipping checkpoint with malformed metrics", "id", cp.ID, "error", err)
			continue
		}
		checkpoints = append(checkpoints, cp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over checkpoint rows: %w", err)
	}
	return checkpoints, nil
}
