// Package purchase plans bulk in-game purchases under a budget. The host
// escalates the price of each additional copy of an item multiplicatively,
// so the plan walks items in descending unit price and buys greedily until
// the budget runs out. Pure and deterministic; the caller dispatches.
package purchase

import (
	"sort"

	"netrunner.ai/internal/grid"
)

// Order is the planned quantity and total cost for one item.
type Order struct {
	ItemID string
	Qty    int
	Cost   float64
}

// NextCost is the price of the (owned+1)-th copy of an item under a
// multiplicative escalator.
func NextCost(unitPrice float64, owned int, escalator float64) float64 {
	if escalator <= 0 {
		escalator = 1
	}
	cost := unitPrice
	for i := 0; i < owned; i++ {
		cost *= escalator
	}
	return cost
}

// Plan spends budget over the catalog: items sorted by descending unit
// price (stable for ties), each bought while the escalated next-copy cost
// still fits and the item has room. Expensive items first matches the
// source behavior: escalators compound, so the priciest items only stay
// affordable while the budget is untouched.
func Plan(budget float64, items []grid.Item, escalator float64) []Order {
	sorted := make([]grid.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UnitPrice > sorted[j].UnitPrice })

	var out []Order
	for _, it := range sorted {
		if it.UnitPrice <= 0 {
			continue
		}
		owned := it.Owned
		var qty int
		var cost float64
		for it.Max <= 0 || owned+qty < it.Max {
			next := NextCost(it.UnitPrice, owned+qty, escalator)
			if next > budget {
				break
			}
			budget -= next
			cost += next
			qty++
		}
		if qty > 0 {
			out = append(out, Order{ItemID: it.ID, Qty: qty, Cost: cost})
		}
	}
	return out
}
