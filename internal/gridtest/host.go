// Package gridtest is a deterministic in-memory stand-in for the game host.
// It implements grid.Client via exported setters only, so tests drive the
// controller black-box the same way the ws transport would.
package gridtest

import (
	"context"
	"fmt"
	"sync"

	"netrunner.ai/internal/grid"
)

// Dispatch is one recorded dispatch call.
type Dispatch struct {
	Rig    string
	Kind   grid.ActionKind
	Target string
	Units  int
	Handle grid.Handle
}

// Trade is one recorded trade call.
type Trade struct {
	Symbol string
	Side   grid.TradeSide
	Shares int64
}

type Host struct {
	mu sync.Mutex

	snap grid.Snapshot
	ests map[string]grid.Estimates

	refuseTargets map[string]bool
	snapErr       error

	nextHandle int
	dispatches []Dispatch
	trades     []Trade
	purchases  map[string]int
}

func NewHost() *Host {
	return &Host{
		ests:          map[string]grid.Estimates{},
		refuseTargets: map[string]bool{},
		purchases:     map[string]int{},
	}
}

func (h *Host) SetSnapshot(s grid.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = s
}

func (h *Host) SetEstimates(targetID string, e grid.Estimates) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ests[targetID] = e
}

// RefuseTarget makes every dispatch against the target come back with an
// empty handle (host-side refusal, not a transport error).
func (h *Host) RefuseTarget(targetID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refuseTargets[targetID] = true
}

// FailSnapshots makes Snapshot return err until called with nil.
func (h *Host) FailSnapshots(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapErr = err
}

func (h *Host) Dispatches() []Dispatch {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Dispatch, len(h.dispatches))
	copy(out, h.dispatches)
	return out
}

func (h *Host) Trades() []Trade {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Trade, len(h.trades))
	copy(out, h.trades)
	return out
}

func (h *Host) Purchased(itemID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.purchases[itemID]
}

func (h *Host) Snapshot(ctx context.Context) (grid.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snapErr != nil {
		return grid.Snapshot{}, h.snapErr
	}
	return h.snap, nil
}

func (h *Host) Estimates(ctx context.Context, targetID string, multiplier float64) (grid.Estimates, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.ests[targetID]
	if !ok {
		return grid.Estimates{}, fmt.Errorf("gridtest: no estimates for %q", targetID)
	}
	return e, nil
}

func (h *Host) Dispatch(ctx context.Context, rigID string, kind grid.ActionKind, targetID string, units int) (grid.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var handle grid.Handle
	if !h.refuseTargets[targetID] {
		h.nextHandle++
		handle = grid.Handle(fmt.Sprintf("H%d", h.nextHandle))
	}
	h.dispatches = append(h.dispatches, Dispatch{Rig: rigID, Kind: kind, Target: targetID, Units: units, Handle: handle})
	return handle, nil
}

func (h *Host) Trade(ctx context.Context, symbol string, side grid.TradeSide, shares int64) (grid.TradeResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trades = append(h.trades, Trade{Symbol: symbol, Side: side, Shares: shares})
	var price float64
	for _, q := range h.snap.Quotes {
		if q.Symbol == symbol {
			price = q.Price
		}
	}
	return grid.TradeResult{FilledShares: shares, AvgPrice: price}, nil
}

func (h *Host) Purchase(ctx context.Context, itemID string, qty int) (grid.PurchaseResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.purchases[itemID] += qty
	return grid.PurchaseResult{Bought: qty}, nil
}
