package sched

import (
	"context"
	"fmt"
	"log"
	"time"

	"netrunner.ai/internal/grid"
)

// Config is everything the cycle loop needs beyond the host handshake.
type Config struct {
	Eligibility Eligibility
	Classify    ClassifyConfig
	Reserve     ReservePolicy

	// Fraction of a target's resource one harvest batch should take.
	HarvestFraction float64

	// Cycle sleep = clamp(shortest dispatched harvest time + WaitMargin,
	// MinWait, MaxWait).
	MinWait    time.Duration
	MaxWait    time.Duration
	WaitMargin time.Duration

	// Plan for exactly this target id when set.
	TargetOverride string
	// Plan and report, never dispatch.
	DryRun bool
}

// CycleEntry is the journaled record of one cycle. It is also what the
// dashboard renders and what replay re-verifies.
type CycleEntry struct {
	At            time.Time          `json:"at"`
	Tick          uint64             `json:"tick"`
	Money         float64            `json:"money"`
	MoneyRate     float64            `json:"money_rate"`
	Rigs          int                `json:"rigs"`
	TotalFree     float64            `json:"total_free"`
	RigFree       map[string]float64 `json:"rig_free,omitempty"`
	Plans         []PlanEntry        `json:"plans"`
	Assignments   []AssignmentEntry  `json:"assignments"`
	Dispatched    int                `json:"dispatched"`
	Failed        int                `json:"failed"`
	OverflowUnits int                `json:"overflow_units"`
	WaitMs        int64              `json:"wait_ms"`
}

type PlanEntry struct {
	Target   string  `json:"target"`
	Action   string  `json:"action"`
	Score    float64 `json:"score"`
	Demand   int     `json:"demand"`
	Assigned int     `json:"assigned"`
}

type AssignmentEntry struct {
	Rig    string `json:"rig"`
	Target string `json:"target"`
	Action string `json:"action"`
	Units  int    `json:"units"`
	Handle string `json:"handle,omitempty"`
	OK     bool   `json:"ok"`
}

// CycleSink receives finished cycle records (journal, stats db, dashboard).
type CycleSink interface {
	WriteCycle(CycleEntry) error
}

// RateTracker is the only state carried across cycles: an explicit smoothed
// money rate for the dashboard. It is threaded through RunOnce by the
// caller, never hidden in a package global.
type RateTracker struct {
	prevValue float64
	prevTime  time.Time
	rate      float64
	primed    bool
}

const rateSmoothing = 0.3

// Observe folds one (time, value) sample into the smoothed rate and returns
// the current estimate in value units per second.
func (r *RateTracker) Observe(now time.Time, value float64) float64 {
	if !r.primed {
		r.prevValue, r.prevTime, r.primed = value, now, true
		return 0
	}
	dt := now.Sub(r.prevTime).Seconds()
	if dt > 0 {
		inst := (value - r.prevValue) / dt
		r.rate = r.rate*(1-rateSmoothing) + inst*rateSmoothing
	}
	r.prevValue, r.prevTime = value, now
	return r.rate
}

func (r *RateTracker) Rate() float64 { return r.rate }

// Controller drives the snapshot -> plan -> dispatch cycle against one host.
type Controller struct {
	client grid.Client
	params grid.Params
	cfg    Config
	log    *log.Logger

	// Optional observer for finished cycles.
	OnCycle func(CycleEntry)
}

func NewController(client grid.Client, params grid.Params, cfg Config, logger *log.Logger) *Controller {
	if cfg.MinWait <= 0 {
		cfg.MinWait = time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Minute
	}
	if cfg.HarvestFraction <= 0 {
		cfg.HarvestFraction = 0.25
	}
	return &Controller{client: client, params: params, cfg: cfg, log: logger}
}

// Run cycles until the context ends. Nothing in a cycle is fatal: snapshot
// and estimate errors idle the cycle and the loop retries after MinWait.
func (c *Controller) Run(ctx context.Context) error {
	var rate RateTracker
	for {
		entry, err := c.RunOnce(ctx, &rate)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Printf("cycle: %v", err)
			entry.WaitMs = c.cfg.MinWait.Milliseconds()
		}
		if c.OnCycle != nil {
			c.OnCycle(entry)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(entry.WaitMs) * time.Millisecond):
		}
	}
}

// RunOnce performs one full cycle: snapshot, rank, classify, estimate
// demand, allocate, dispatch. It is a pure computation over the snapshot
// followed by one batch of best-effort dispatch calls.
func (c *Controller) RunOnce(ctx context.Context, rate *RateTracker) (CycleEntry, error) {
	entry := CycleEntry{At: time.Now().UTC(), WaitMs: c.cfg.MinWait.Milliseconds()}

	snap, err := c.client.Snapshot(ctx)
	if err != nil {
		return entry, fmt.Errorf("snapshot: %w", err)
	}
	entry.Tick = snap.Tick
	entry.Money = snap.Player.Money
	entry.MoneyRate = rate.Observe(entry.At, snap.Player.Money)
	entry.Rigs = len(snap.Rigs)

	caps := FreeCapacity(snap.Rigs, c.cfg.Reserve)
	entry.TotalFree = TotalFree(caps)
	entry.RigFree = make(map[string]float64, len(caps))
	for _, cp := range caps {
		entry.RigFree[cp.ID] = cp.Free
	}
	if len(caps) == 0 {
		c.log.Printf("cycle: no free capacity anywhere; idling")
		return entry, nil
	}

	elig := c.cfg.Eligibility
	elig.Capability = snap.Player.Capability

	candidates := snap.Targets
	if c.cfg.TargetOverride != "" {
		candidates = candidates[:0:0]
		for _, t := range snap.Targets {
			if t.ID == c.cfg.TargetOverride {
				candidates = append(candidates, t)
			}
		}
	}

	// One estimate round trip per eligible target.
	ests := make(map[string]grid.Estimates, len(candidates))
	for _, t := range candidates {
		if !Eligible(t, elig) {
			continue
		}
		est, err := c.client.Estimates(ctx, t.ID, ReplenishMultiplier(t))
		if err != nil {
			if ctx.Err() != nil {
				return entry, ctx.Err()
			}
			c.log.Printf("estimates %s: %v (target skipped)", t.ID, err)
			continue
		}
		ests[t.ID] = est
	}

	plans := Rank(candidates, ests, elig)
	kept := plans[:0]
	for _, p := range plans {
		if _, ok := ests[p.Target.ID]; ok {
			kept = append(kept, p)
		}
	}
	plans = kept
	if len(plans) == 0 {
		c.log.Printf("cycle: no eligible targets; idling")
		return entry, nil
	}

	dcfg := DemandConfig{
		SuppressPerUnit: c.params.SuppressPerUnit,
		HarvestFraction: c.cfg.HarvestFraction,
	}
	for _, p := range plans {
		p.Action = Classify(p.Target, c.cfg.Classify)
		p.Demand = Demand(p.Target, p.Action, ests[p.Target.ID], dcfg)
	}

	assignments := Allocate(caps, plans, c.params.UnitCosts)

	for _, p := range plans {
		entry.Plans = append(entry.Plans, PlanEntry{
			Target:   p.Target.ID,
			Action:   p.Action.String(),
			Score:    p.Score,
			Demand:   p.Demand,
			Assigned: p.Assigned,
		})
	}
	if top := plans[0]; top.Assigned > top.Demand {
		entry.OverflowUnits = top.Assigned - top.Demand
	}

	for _, a := range assignments {
		ae := AssignmentEntry{Rig: a.Rig, Target: a.Target, Action: a.Action.String(), Units: a.Units}
		if c.cfg.DryRun {
			ae.OK = true
			entry.Assignments = append(entry.Assignments, ae)
			continue
		}
		handle, err := c.client.Dispatch(ctx, a.Rig, a.Action, a.Target, a.Units)
		if err != nil {
			if ctx.Err() != nil {
				entry.Assignments = append(entry.Assignments, ae)
				return entry, ctx.Err()
			}
			c.log.Printf("dispatch %s %s->%s x%d: %v", a.Action, a.Rig, a.Target, a.Units, err)
			entry.Failed++
		} else if !handle.OK() {
			c.log.Printf("dispatch %s %s->%s x%d: refused", a.Action, a.Rig, a.Target, a.Units)
			entry.Failed++
		} else {
			ae.Handle = string(handle)
			ae.OK = true
			entry.Dispatched++
		}
		entry.Assignments = append(entry.Assignments, ae)
	}

	entry.WaitMs = c.wait(plans, ests).Milliseconds()
	return entry, nil
}

// wait derives the sleep from the shortest estimated completion among plans
// that actually got units, bounded by the configured window.
func (c *Controller) wait(plans []*Plan, ests map[string]grid.Estimates) time.Duration {
	shortest := time.Duration(0)
	for _, p := range plans {
		if p.Assigned <= 0 {
			continue
		}
		ht := ests[p.Target.ID].HarvestTime
		if ht <= 0 {
			continue
		}
		if shortest == 0 || ht < shortest {
			shortest = ht
		}
	}
	w := shortest + c.cfg.WaitMargin
	if w < c.cfg.MinWait {
		w = c.cfg.MinWait
	}
	if w > c.cfg.MaxWait {
		w = c.cfg.MaxWait
	}
	return w
}
