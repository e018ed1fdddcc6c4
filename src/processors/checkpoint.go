package processors

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

// CheckpointTimeFormat matches the layout used by the persisted history.
const CheckpointTimeFormat = "2006-01-02 15:04:05"

// BuildCheckpoint turns the prices fed into an analysis and its per-coin
// snapshots into one serializable history entry. Persisting it is the
// storage layer's job.
func BuildCheckpoint(now time.Time, prices map[string]decimal.Decimal, snapshots map[string]models.HoldingsSnapshot) models.Checkpoint {
	metrics := models.CheckpointMetrics{Coins: snapshots}
	for _, snap := range snapshots {
		metrics.TotalPrincipal = metrics.TotalPrincipal.Add(snap.Principal)
		metrics.TotalValue = metrics.TotalValue.Add(snap.CurrentValue)
		metrics.TotalUnrealizedProfit = metrics.TotalUnrealizedProfit.Add(snap.UnrealizedProfit)
		metrics.TotalRealizedProfit = metrics.TotalRealizedProfit.Add(snap.RealizedProfit)
	}
	return models.Checkpoint{
		Timestamp: now.Format(CheckpointTimeFormat),
		Prices:    prices,
		Metrics:   metrics,
	}
}
