// Package grid holds the observable data model of the game world and the
// client capability the controller schedules against. The host simulation
// owns all formulas; everything here is a snapshot of what it reports.
package grid

import (
	"context"
	"time"
)

// Rig is a controlled worker host. Free capacity is derived, never stored.
type Rig struct {
	ID    string
	Total float64
	Used  float64
}

func (r Rig) Free() float64 { return r.Total - r.Used }

// Target is a remote server that can be drained for resource.
type Target struct {
	ID            string
	Resource      float64
	MaxResource   float64
	Resistance    float64
	MinResistance float64
	Requirement   int
	Owned         bool
}

// Player is the agent's own progression state.
type Player struct {
	Capability int
	Money      float64
}

// Quote is one stock symbol as reported by the in-game market.
type Quote struct {
	Symbol      string
	Price       float64
	Forecast    float64
	Volatility  float64
	Spread      float64
	Position    int64
	MaxPosition int64
}

// Item is one purchasable catalog entry. The host escalates the price of
// each additional copy multiplicatively.
type Item struct {
	ID        string
	UnitPrice float64
	Owned     int
	Max       int
}

// Snapshot is one consistent observation of the world.
type Snapshot struct {
	Tick    uint64
	Player  Player
	Rigs    []Rig
	Targets []Target
	Quotes  []Quote
	Catalog []Item
}

// Estimates are the host-computed per-target scalars the demand estimator
// consumes. The agent never recomputes the underlying curves.
type Estimates struct {
	HarvestTime     time.Duration
	ReplenishUnits  int
	HarvestFraction float64
}

// Handle identifies work started on the host. Empty means refused.
type Handle string

func (h Handle) OK() bool { return h != "" }

type TradeSide string

const (
	TradeBuy  TradeSide = "BUY"
	TradeSell TradeSide = "SELL"
)

type TradeResult struct {
	FilledShares int64
	AvgPrice     float64
	Code         string
}

type PurchaseResult struct {
	Bought int
	Spent  float64
	Code   string
}

// Params are the fixed per-unit constants handed over at handshake.
type Params struct {
	SuppressPerUnit float64
	UnitCosts       UnitCosts
	HomeRig         string
}

// UnitCosts is the capacity cost of one unit of each action.
type UnitCosts struct {
	Suppress  float64
	Replenish float64
	Harvest   float64
}

// Client is the full capability surface the controller consumes. The ws
// transport implements it against a live host; gridtest implements it
// in memory.
type Client interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Estimates(ctx context.Context, targetID string, multiplier float64) (Estimates, error)
	Dispatch(ctx context.Context, rigID string, kind ActionKind, targetID string, units int) (Handle, error)
	Trade(ctx context.Context, symbol string, side TradeSide, shares int64) (TradeResult, error)
	Purchase(ctx context.Context, itemID string, qty int) (PurchaseResult, error)
}
