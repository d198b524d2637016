package sched

import "netrunner.ai/internal/grid"

// ClassifyConfig holds the two thresholds of the action decision.
type ClassifyConfig struct {
	// How far above its floor a target's resistance may drift before
	// harvesting stops paying and suppression takes over.
	ResistanceBuffer float64
	// Harvest only while resource is at least this fraction of max.
	ResourceFraction float64
}

// Classify maps a target's current state to the one action worth running on
// it this cycle. The priority is fixed: suppression pre-empts replenishment,
// replenishment pre-empts harvesting. The order never changes even when
// several conditions hold, because harvesting a hardened or drained target
// wastes the whole batch.
func Classify(t grid.Target, cfg ClassifyConfig) grid.ActionKind {
	if t.Resistance > t.MinResistance+cfg.ResistanceBuffer {
		return grid.ActionSuppress
	}
	if t.Resource < t.MaxResource*cfg.ResourceFraction {
		return grid.ActionReplenish
	}
	return grid.ActionHarvest
}
