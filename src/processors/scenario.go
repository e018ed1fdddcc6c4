package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/cryptofolio/src/models"
)

// Distribution collects the historical buy lots of one coin straight from the
// raw records, so the individual (quantity, price) pairs survive for a
// histogram. The aggregate average is the same weighted average the ledger
// computes from the same buys.
func Distribution(records []models.TransactionRecord, coin string, currentPrice decimal.Decimal) models.DistributionResult {
	lots := []models.Lot{}
	totalQuantity := decimal.Zero
	totalCost := decimal.Zero

	for _, rec := range records {
		if rec.CoinSymbol != coin || rec.TradeSide != models.TradeBuy {
			continue
		}
		qty, ok := positive(rec.SettledQuantity)
		if !ok {
			qty, ok = positive(rec.Quantity)
		}
		price, priceOK := positive(rec.Rate)
		if !ok || !priceOK {
			continue
		}
		lots = append(lots, models.Lot{Quantity: qty, Price: price})
		totalQuantity = totalQuantity.Add(qty)
		totalCost = totalCost.Add(qty.Mul(price))
	}

	avgPrice := decimal.Zero
	if totalQuantity.Sign() > 0 {
		avgPrice = totalCost.Div(totalQuantity)
	}
	return models.DistributionResult{
		Distribution:  lots,
		AvgPrice:      avgPrice,
		CurrentPrice:  currentPrice,
		TotalQuantity: totalQuantity,
		CurrentValue:  totalQuantity.Mul(currentPrice),
	}
}

// Scenario projects the holdings as if one additional lot of the given
// quantity were bought at the current price. Pure function of its inputs.
func Scenario(current models.DistributionResult, additionalQuantity decimal.Decimal) models.ScenarioResult {
	return project(current, additionalQuantity, additionalQuantity.Mul(current.CurrentPrice))
}

// ScenarioByAmount is the fiat-amount form of Scenario: the added quantity is
// amount divided by the current price (zero when the price is not positive),
// and the added cost is the amount itself.
func ScenarioByAmount(current models.DistributionResult, additionalAmount decimal.Decimal) models.ScenarioResult {
	addedQty := decimal.Zero
	if current.CurrentPrice.Sign() > 0 {
		addedQty = additionalAmount.Div(current.CurrentPrice)
	}
	return project(current, addedQty, additionalAmount)
}

func project(current models.DistributionResult, addedQty, addedCost decimal.Decimal) models.ScenarioResult {
	price := current.CurrentPrice
	curQty := current.TotalQuantity
	curAvg := current.AvgPrice
	curCost := curQty.Mul(curAvg)
	curValue := curQty.Mul(price)

	newQty := curQty.Add(addedQty)
	newCost := curCost.Add(addedCost)
	newAvg := decimal.Zero
	if newQty.Sign() > 0 {
		newAvg = newCost.Div(newQty)
	}
	newValue := newQty.Mul(price)

	return models.ScenarioResult{
		Current: models.ScenarioLeg{
			Quantity:  curQty,
			AvgPrice:  curAvg,
			TotalCost: curCost,
			Value:     curValue,
		},
		New: models.ScenarioLeg{
			Quantity:  newQty,
			AvgPrice:  newAvg,
			TotalCost: newCost,
			Value:     newValue,
		},
		Change: models.ScenarioLeg{
			Quantity:  addedQty,
			AvgPrice:  newAvg.Sub(curAvg),
			TotalCost: newCost.Sub(curCost),
			Value:     newValue.Sub(curValue),
		},
	}
}
