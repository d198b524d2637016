package sched

import (
	"math"

	"netrunner.ai/internal/grid"
)

// Plan is one target's slice of the cycle: its rank score, the classified
// action, how many units that action needs, and what it actually got.
type Plan struct {
	Target   grid.Target
	Score    float64
	Action   grid.ActionKind
	Demand   int
	Assigned int
}

func (p *Plan) saturated() bool { return p.Assigned >= p.Demand }

// Assignment is the unit of dispatch: run Units of Action against Target on
// Rig. Exactly one assignment is issued per (rig, target) pair; overflow
// units merge into the existing pair instead of producing a second dispatch.
type Assignment struct {
	Rig    string
	Target string
	Action grid.ActionKind
	Units  int
}

// Allocate spreads the capacity pool over the ranked plans.
//
// Main pass: rigs are visited largest-first; within a rig, plans are offered
// capacity strictly in rank order, skipping saturated ones. A rig that cannot
// afford a single unit of the current plan's action is skipped for that plan
// only and still offered to later plans in the same pass (cheaper actions may
// still fit). The pass ends when the pool is exhausted or every plan is
// saturated.
//
// Overflow: capacity left after every plan saturates is assigned, in full,
// to the highest-ranked plan regardless of its demand, so surplus keeps
// working the best target instead of idling.
//
// caps is mutated in place (it is a per-cycle snapshot); plans accumulate
// their Assigned counts.
func Allocate(caps []RigCapacity, plans []*Plan, costs grid.UnitCosts) []Assignment {
	if len(plans) == 0 {
		return nil
	}

	var out []Assignment
	byPair := map[[2]string]int{} // (rig, target) -> index in out

	assign := func(rig *RigCapacity, p *Plan, units int) {
		cost := costs.Cost(p.Action)
		rig.Free -= float64(units) * cost
		p.Assigned += units
		key := [2]string{rig.ID, p.Target.ID}
		if i, ok := byPair[key]; ok {
			out[i].Units += units
			return
		}
		byPair[key] = len(out)
		out = append(out, Assignment{Rig: rig.ID, Target: p.Target.ID, Action: p.Action, Units: units})
	}

	allSaturated := func() bool {
		for _, p := range plans {
			if !p.saturated() {
				return false
			}
		}
		return true
	}

	for i := range caps {
		if allSaturated() {
			break
		}
		rig := &caps[i]
		for _, p := range plans {
			if p.saturated() {
				continue
			}
			cost := costs.Cost(p.Action)
			if cost <= 0 {
				cost = 1
			}
			affordable := int(math.Floor(rig.Free / cost))
			if affordable < 1 {
				// Known suboptimal packing, preserved: the rig is only
				// skipped for this plan, not retired from the pass.
				continue
			}
			units := p.Demand - p.Assigned
			if units > affordable {
				units = affordable
			}
			assign(rig, p, units)
			if rig.Free <= 0 {
				break
			}
		}
	}

	// Overflow to the top-ranked plan.
	if allSaturated() {
		top := plans[0]
		cost := costs.Cost(top.Action)
		if cost <= 0 {
			cost = 1
		}
		for i := range caps {
			rig := &caps[i]
			units := int(math.Floor(rig.Free / cost))
			if units < 1 {
				continue
			}
			assign(rig, top, units)
		}
	}

	return out
}
