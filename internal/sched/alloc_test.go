package sched

import (
	"testing"

	"netrunner.ai/internal/grid"
)

func unitCosts(c float64) grid.UnitCosts {
	return grid.UnitCosts{Suppress: c, Replenish: c, Harvest: c}
}

func plan(id string, action grid.ActionKind, demand int, score float64) *Plan {
	return &Plan{Target: grid.Target{ID: id}, Action: action, Demand: demand, Score: score}
}

func TestAllocate_SingleTargetOverflowsToItself(t *testing.T) {
	caps := []RigCapacity{{ID: "rig1", Free: 100}}
	p := plan("t1", grid.ActionHarvest, 40, 1)

	out := Allocate(caps, []*Plan{p}, unitCosts(1))

	if len(out) != 1 {
		t.Fatalf("want exactly one assignment per (rig,target), got %d", len(out))
	}
	if out[0].Units != 100 {
		t.Fatalf("want 40 demand + 60 overflow merged into 100 units, got %d", out[0].Units)
	}
	if p.Assigned != 100 {
		t.Fatalf("assigned = %d, want 100", p.Assigned)
	}
	if caps[0].Free != 0 {
		t.Fatalf("rig should be fully drained, free = %v", caps[0].Free)
	}
}

func TestAllocate_RankOrderAcrossTwoRigs(t *testing.T) {
	caps := []RigCapacity{{ID: "rig1", Free: 10}, {ID: "rig2", Free: 5}}
	p1 := plan("t1", grid.ActionHarvest, 8, 2)
	p2 := plan("t2", grid.ActionHarvest, 20, 1)

	out := Allocate(caps, []*Plan{p1, p2}, unitCosts(1))

	if p1.Assigned != 8 {
		t.Fatalf("t1 assigned = %d, want 8", p1.Assigned)
	}
	if p2.Assigned != 7 {
		t.Fatalf("t2 assigned = %d, want 2 from rig1 remainder + 5 from rig2 = 7", p2.Assigned)
	}
	// Demand not met and capacity exhausted: no overflow.
	for _, a := range out {
		if a.Target == "t1" && a.Units > 8 {
			t.Fatalf("overflow triggered while t2 was unsaturated: %+v", a)
		}
	}
	wantPairs := map[[2]string]int{
		{"rig1", "t1"}: 8,
		{"rig1", "t2"}: 2,
		{"rig2", "t2"}: 5,
	}
	if len(out) != len(wantPairs) {
		t.Fatalf("assignments = %+v, want pairs %v", out, wantPairs)
	}
	for _, a := range out {
		if wantPairs[[2]string{a.Rig, a.Target}] != a.Units {
			t.Fatalf("assignment %+v does not match expected pairs %v", a, wantPairs)
		}
	}
}

func TestAllocate_PerRigSpendNeverExceedsFree(t *testing.T) {
	caps := []RigCapacity{{ID: "a", Free: 17}, {ID: "b", Free: 9}, {ID: "c", Free: 3}}
	free := map[string]float64{}
	for _, c := range caps {
		free[c.ID] = c.Free
	}
	costs := grid.UnitCosts{Suppress: 1.75, Replenish: 1.75, Harvest: 1.7}
	plans := []*Plan{
		plan("t1", grid.ActionSuppress, 5, 3),
		plan("t2", grid.ActionHarvest, 4, 2),
		plan("t3", grid.ActionReplenish, 9, 1),
	}

	out := Allocate(caps, plans, costs)

	spent := map[string]float64{}
	for _, a := range out {
		kindCost := costs.Cost(a.Action)
		spent[a.Rig] += float64(a.Units) * kindCost
	}
	for rig, s := range spent {
		if s > free[rig]+1e-9 {
			t.Fatalf("rig %s spent %v > free %v", rig, s, free[rig])
		}
	}
}

func TestAllocate_NonOverflowNeverExceedsDemand(t *testing.T) {
	caps := []RigCapacity{{ID: "a", Free: 1000}}
	p1 := plan("t1", grid.ActionHarvest, 3, 5)
	p2 := plan("t2", grid.ActionSuppress, 7, 1)

	Allocate(caps, []*Plan{p1, p2}, unitCosts(1))

	if p2.Assigned > p2.Demand {
		t.Fatalf("non-overflow target exceeded demand: %d > %d", p2.Assigned, p2.Demand)
	}
	if p1.Assigned <= p1.Demand {
		t.Fatalf("top target should absorb the surplus, assigned = %d", p1.Assigned)
	}
}

func TestAllocate_HigherScoreNeverLessSaturated(t *testing.T) {
	caps := []RigCapacity{{ID: "a", Free: 12}, {ID: "b", Free: 7}}
	hi := plan("hi", grid.ActionHarvest, 15, 9)
	lo := plan("lo", grid.ActionHarvest, 15, 1)

	Allocate(caps, []*Plan{hi, lo}, unitCosts(1))

	satHi := float64(hi.Assigned) / float64(hi.Demand)
	satLo := float64(lo.Assigned) / float64(lo.Demand)
	if satHi < satLo {
		t.Fatalf("higher-scored target less saturated: %v < %v", satHi, satLo)
	}
}

func TestAllocate_SkipExpensiveTargetKeepsRigForCheaper(t *testing.T) {
	// Rig can't afford one suppress unit but can afford harvest units. The
	// rig is skipped for the expensive plan only, not retired from the pass.
	caps := []RigCapacity{{ID: "small", Free: 3}}
	costs := grid.UnitCosts{Suppress: 4, Replenish: 4, Harvest: 1}
	exp := plan("expensive", grid.ActionSuppress, 2, 5)
	cheap := plan("cheap", grid.ActionHarvest, 2, 1)

	out := Allocate(caps, []*Plan{exp, cheap}, costs)

	if exp.Assigned != 0 {
		t.Fatalf("expensive plan should get nothing, got %d", exp.Assigned)
	}
	if cheap.Assigned != 2 {
		t.Fatalf("cheap plan should still be served by the skipped rig, got %d", cheap.Assigned)
	}
	if len(out) != 1 || out[0].Target != "cheap" {
		t.Fatalf("assignments = %+v", out)
	}
}

func TestAllocate_NoTargets(t *testing.T) {
	caps := []RigCapacity{{ID: "a", Free: 50}}
	if out := Allocate(caps, nil, unitCosts(1)); out != nil {
		t.Fatalf("want no assignments, got %+v", out)
	}
	if caps[0].Free != 50 {
		t.Fatalf("capacity must be untouched with no targets, free = %v", caps[0].Free)
	}
}

func TestAllocate_SurplusFullyAssignedWhenTargetsExist(t *testing.T) {
	caps := []RigCapacity{{ID: "a", Free: 30}, {ID: "b", Free: 20}}
	p1 := plan("t1", grid.ActionHarvest, 10, 2)
	p2 := plan("t2", grid.ActionHarvest, 5, 1)

	Allocate(caps, []*Plan{p1, p2}, unitCosts(1))

	var left float64
	for _, c := range caps {
		left += c.Free
	}
	if left != 0 {
		t.Fatalf("surplus capacity left unassigned: %v", left)
	}
	if got := p1.Assigned; got != 10+35 {
		t.Fatalf("all 35 surplus units must land on the top target, assigned = %d", got)
	}
}
