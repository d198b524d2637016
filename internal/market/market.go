// Package market ranks in-game stock quotes by expected value and turns the
// ranking into best-effort buy/sell orders. Like the scheduler, each pass is
// a pure computation over one snapshot followed by a batch of dispatches.
package market

import (
	"sort"

	"netrunner.ai/internal/grid"
)

type Config struct {
	// Minimum forecast edge (2*forecast - 1) to open or keep a position.
	BuyThreshold float64
	// Edge at or below which an open position is closed.
	SellThreshold float64
	// Cap on the cash value of a single buy order.
	MaxOrderValue float64
	// Never spend below this cash reserve.
	CashFloor float64
}

// Edge is the expected direction of a quote in [-1, 1].
func Edge(q grid.Quote) float64 { return 2*q.Forecast - 1 }

// Score is expected drift per unit volatility: steady climbers beat coin
// flips with the same forecast.
func Score(q grid.Quote) float64 {
	vol := q.Volatility
	if vol <= 0 {
		vol = 0.001
	}
	return Edge(q) / vol
}

// Ranked is one quote with its score, in rank order.
type Ranked struct {
	Quote grid.Quote
	Score float64
}

// Rank orders quotes by descending score. Stable, so equal scores keep
// snapshot order.
func Rank(quotes []grid.Quote) []Ranked {
	out := make([]Ranked, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, Ranked{Quote: q, Score: Score(q)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Order is one decided trade.
type Order struct {
	Symbol string
	Side   grid.TradeSide
	Shares int64
}

// Decide is the greedy single pass over a ranked snapshot: close every
// position whose edge fell through SellThreshold, then walk the ranking and
// buy the best affordable positions until cash (minus the floor) runs out.
func Decide(ranked []Ranked, cash float64, cfg Config) []Order {
	var orders []Order

	for _, r := range ranked {
		q := r.Quote
		if q.Position > 0 && Edge(q) <= cfg.SellThreshold {
			orders = append(orders, Order{Symbol: q.Symbol, Side: grid.TradeSell, Shares: q.Position})
			cash += float64(q.Position) * q.Price
		}
	}

	budget := cash - cfg.CashFloor
	for _, r := range ranked {
		q := r.Quote
		if budget <= 0 {
			break
		}
		if Edge(q) < cfg.BuyThreshold {
			// Ranking is score-descending, but the edge gate is per quote;
			// keep scanning for cheaper positive-edge symbols.
			continue
		}
		room := q.MaxPosition - q.Position
		if room <= 0 || q.Price <= 0 {
			continue
		}
		spend := budget
		if cfg.MaxOrderValue > 0 && spend > cfg.MaxOrderValue {
			spend = cfg.MaxOrderValue
		}
		shares := int64(spend / q.Price)
		if shares > room {
			shares = room
		}
		if shares <= 0 {
			continue
		}
		orders = append(orders, Order{Symbol: q.Symbol, Side: grid.TradeBuy, Shares: shares})
		budget -= float64(shares) * q.Price
	}
	return orders
}
