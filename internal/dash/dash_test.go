package dash

import (
	"strings"
	"testing"

	"netrunner.ai/internal/sched"
)

func TestRender_FullCycle(t *testing.T) {
	entry := sched.CycleEntry{
		Tick:          12,
		Money:         5000,
		MoneyRate:     42.5,
		Rigs:          2,
		TotalFree:     96,
		Dispatched:    1,
		Failed:        1,
		OverflowUnits: 5,
		WaitMs:        10500,
		Plans: []sched.PlanEntry{
			{Target: "alpha", Action: "HARVEST", Score: 3.14, Demand: 25, Assigned: 30},
			{Target: "beta", Action: "SUPPRESS", Score: 1.5, Demand: 40, Assigned: 40},
		},
		Assignments: []sched.AssignmentEntry{
			{Rig: "worker1", Target: "alpha", Action: "HARVEST", Units: 30, Handle: "H1", OK: true},
			{Rig: "home", Target: "beta", Action: "SUPPRESS", Units: 40, OK: false},
		},
	}

	var sb strings.Builder
	if err := Render(&sb, entry); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"tick=12",
		"rate=42.5/s",
		"wait=10.5s",
		"alpha",
		"HARVEST",
		"overflow=5 units onto alpha",
		"refused: SUPPRESS home -> beta x40",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "refused: HARVEST") {
		t.Fatalf("successful dispatch listed as refused:\n%s", out)
	}
}

func TestRender_IdleCycle(t *testing.T) {
	var sb strings.Builder
	if err := Render(&sb, sched.CycleEntry{Tick: 3, WaitMs: 1000}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(sb.String(), "no eligible targets") {
		t.Fatalf("idle cycle output:\n%s", sb.String())
	}
}
