package sched

import (
	"testing"

	"netrunner.ai/internal/grid"
)

func TestFreeCapacity_ReserveAndSort(t *testing.T) {
	rigs := []grid.Rig{
		{ID: "home", Total: 32, Used: 4},
		{ID: "big", Total: 1024, Used: 0},
		{ID: "full", Total: 16, Used: 16},
		{ID: "mid", Total: 64, Used: 14},
	}
	caps := FreeCapacity(rigs, ReservePolicy{HomeRig: "home", HomeReserve: 8})

	want := []RigCapacity{
		{ID: "big", Free: 1024},
		{ID: "mid", Free: 50},
		{ID: "home", Free: 20},
	}
	if len(caps) != len(want) {
		t.Fatalf("caps = %+v, want %+v", caps, want)
	}
	for i := range want {
		if caps[i] != want[i] {
			t.Fatalf("caps[%d] = %+v, want %+v", i, caps[i], want[i])
		}
	}
}

func TestFreeCapacity_ReserveCanZeroOutHomeRig(t *testing.T) {
	rigs := []grid.Rig{{ID: "home", Total: 8, Used: 2}}
	caps := FreeCapacity(rigs, ReservePolicy{HomeRig: "home", HomeReserve: 6})
	if len(caps) != 0 {
		t.Fatalf("home rig fully reserved must be dropped, got %+v", caps)
	}
}

func TestFreeCapacity_StableForEqualFree(t *testing.T) {
	rigs := []grid.Rig{
		{ID: "a", Total: 10},
		{ID: "b", Total: 10},
		{ID: "c", Total: 10},
	}
	caps := FreeCapacity(rigs, ReservePolicy{})
	for i, id := range []string{"a", "b", "c"} {
		if caps[i].ID != id {
			t.Fatalf("equal free capacities must keep input order, got %+v", caps)
		}
	}
}
