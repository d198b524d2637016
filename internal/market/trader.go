package market

import (
	"context"
	"fmt"
	"log"
	"time"

	"netrunner.ai/internal/grid"
)

// TradeEntry is the journaled record of one executed (or refused) order.
type TradeEntry struct {
	At       time.Time `json:"at"`
	Symbol   string    `json:"symbol"`
	Side     string    `json:"side"`
	Shares   int64     `json:"shares"`
	Filled   int64     `json:"filled"`
	AvgPrice float64   `json:"avg_price"`
	Score    float64   `json:"score"`
	OK       bool      `json:"ok"`
	Code     string    `json:"code,omitempty"`
}

// TradeSink receives finished trade records.
type TradeSink interface {
	WriteTrade(TradeEntry) error
}

// Trader runs the market pass on its own cadence against the same host
// client the scheduler uses.
type Trader struct {
	client grid.Client
	cfg    Config
	log    *log.Logger

	OnTrade func(TradeEntry)
}

func NewTrader(client grid.Client, cfg Config, logger *log.Logger) *Trader {
	return &Trader{client: client, cfg: cfg, log: logger}
}

// Run passes every interval until the context ends.
func (t *Trader) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				t.log.Printf("market: %v", err)
			}
		}
	}
}

// RunOnce snapshots, ranks, decides, and dispatches orders best-effort. A
// refused order is recorded and the pass continues.
func (t *Trader) RunOnce(ctx context.Context) error {
	snap, err := t.client.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if len(snap.Quotes) == 0 {
		return nil
	}

	ranked := Rank(snap.Quotes)
	scores := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		scores[r.Quote.Symbol] = r.Score
	}

	for _, o := range Decide(ranked, snap.Player.Money, t.cfg) {
		entry := TradeEntry{
			At:     time.Now().UTC(),
			Symbol: o.Symbol,
			Side:   string(o.Side),
			Shares: o.Shares,
			Score:  scores[o.Symbol],
		}
		res, err := t.client.Trade(ctx, o.Symbol, o.Side, o.Shares)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.log.Printf("trade %s %s x%d: %v", o.Side, o.Symbol, o.Shares, err)
			entry.Code = "E_TRANSPORT"
		} else {
			entry.Filled = res.FilledShares
			entry.AvgPrice = res.AvgPrice
			entry.Code = res.Code
			entry.OK = res.FilledShares > 0 && res.Code == ""
			if !entry.OK {
				t.log.Printf("trade %s %s x%d: refused (%s)", o.Side, o.Symbol, o.Shares, res.Code)
			}
		}
		if t.OnTrade != nil {
			t.OnTrade(entry)
		}
	}
	return nil
}
