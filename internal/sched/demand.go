package sched

import (
	"math"

	"netrunner.ai/internal/grid"
)

// DemandConfig carries the per-unit constants the demand math needs.
type DemandConfig struct {
	// Resistance removed by one SUPPRESS unit (host constant).
	SuppressPerUnit float64
	// Fraction of a target's resource one harvest batch should take.
	HarvestFraction float64
}

// ReplenishMultiplier is the growth factor the host is asked to price:
// enough to take the target from its current resource back to max. Current
// is clamped to 1 so a fully drained target does not ask for an infinite
// multiplier.
func ReplenishMultiplier(t grid.Target) float64 {
	cur := t.Resource
	if cur < 1 {
		cur = 1
	}
	m := t.MaxResource / cur
	if m < 1 {
		m = 1
	}
	return m
}

// Demand is the number of units that fully completes the classified action
// this cycle. Every branch clamps to at least 1: a target that made it
// through ranking always gets an attempt, and the clamps double as the
// divide-by-zero guards for degenerate host constants.
func Demand(t grid.Target, kind grid.ActionKind, est grid.Estimates, cfg DemandConfig) int {
	switch kind {
	case grid.ActionSuppress:
		per := cfg.SuppressPerUnit
		if per <= 0 {
			return 1
		}
		n := int(math.Ceil((t.Resistance - t.MinResistance) / per))
		if n < 1 {
			n = 1
		}
		return n

	case grid.ActionReplenish:
		// The host prices the multiplier curve; we only asked for
		// ReplenishMultiplier(t) and use its answer as-is.
		if est.ReplenishUnits < 1 {
			return 1
		}
		return est.ReplenishUnits

	case grid.ActionHarvest:
		// est.HarvestFraction == 0 means the target is saturated or the
		// estimate degenerated; still send one unit rather than starve it.
		if est.HarvestFraction <= 0 {
			return 1
		}
		n := int(math.Floor(cfg.HarvestFraction / est.HarvestFraction))
		if n < 1 {
			n = 1
		}
		return n
	}
	return 1
}
