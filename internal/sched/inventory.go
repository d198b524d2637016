// Package sched is the per-cycle planner: it turns one world snapshot into a
// ranked, classified, demand-annotated target list, spreads rig capacity over
// it, and hands the resulting assignments to the dispatcher. Everything here
// is pure over the snapshot; nothing survives a cycle except the explicit
// RateTracker the caller threads through.
package sched

import (
	"sort"

	"netrunner.ai/internal/grid"
)

// RigCapacity is one worker with its spendable capacity this cycle.
type RigCapacity struct {
	ID   string
	Free float64
}

// ReservePolicy keeps a fixed slice of the home rig out of the pool so the
// controller itself (and whatever else the player runs there) is never
// squeezed out. All other rigs reserve nothing.
type ReservePolicy struct {
	HomeRig     string
	HomeReserve float64
}

// FreeCapacity snapshots the spendable capacity of every rig, largest first.
// Largest-first keeps big demands on few rigs and leaves the small remainders
// for the small rigs, which fragments the pool less when demand is split.
func FreeCapacity(rigs []grid.Rig, policy ReservePolicy) []RigCapacity {
	out := make([]RigCapacity, 0, len(rigs))
	for _, r := range rigs {
		free := r.Free()
		if r.ID == policy.HomeRig {
			free -= policy.HomeReserve
		}
		if free <= 0 {
			continue
		}
		out = append(out, RigCapacity{ID: r.ID, Free: free})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Free > out[j].Free })
	return out
}

// TotalFree sums the spendable capacity of the pool.
func TotalFree(caps []RigCapacity) float64 {
	var sum float64
	for _, c := range caps {
		sum += c.Free
	}
	return sum
}
