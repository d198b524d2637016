package journal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"netrunner.ai/internal/sched"
)

func TestCycleLogger_RoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	l := NewCycleLogger(dataDir)

	want := []sched.CycleEntry{
		{
			At:        time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
			Tick:      1,
			Money:     100,
			TotalFree: 96,
			Plans: []sched.PlanEntry{
				{Target: "alpha", Action: "HARVEST", Score: 2.5, Demand: 25, Assigned: 25},
			},
			Assignments: []sched.AssignmentEntry{
				{Rig: "worker1", Target: "alpha", Action: "HARVEST", Units: 25, Handle: "H1", OK: true},
			},
			Dispatched: 1,
			WaitMs:     10500,
		},
		{
			At:     time.Date(2026, 8, 27, 12, 0, 11, 0, time.UTC),
			Tick:   2,
			Money:  140,
			WaitMs: 1000,
		},
	}
	for _, e := range want {
		if err := l.WriteCycle(e); err != nil {
			t.Fatalf("WriteCycle: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got []sched.CycleEntry
	err := ReadCycles(filepath.Join(dataDir, "cycles"), func(e sched.CycleEntry) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadCycles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d entries, want 2", len(got))
	}
	if got[0].Tick != 1 || got[1].Tick != 2 {
		t.Fatalf("order: %d, %d", got[0].Tick, got[1].Tick)
	}
	if len(got[0].Assignments) != 1 || got[0].Assignments[0].Handle != "H1" {
		t.Fatalf("entry 0 = %+v", got[0])
	}
	if got[0].WaitMs != 10500 {
		t.Fatalf("wait_ms = %d", got[0].WaitMs)
	}
}

func TestReadCycles_CallbackErrorStopsScan(t *testing.T) {
	dataDir := t.TempDir()
	l := NewCycleLogger(dataDir)
	for tick := uint64(1); tick <= 3; tick++ {
		if err := l.WriteCycle(sched.CycleEntry{Tick: tick}); err != nil {
			t.Fatalf("WriteCycle: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stop := errors.New("stop")
	seen := 0
	err := ReadCycles(filepath.Join(dataDir, "cycles"), func(e sched.CycleEntry) error {
		seen++
		if e.Tick == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want stop", err)
	}
	if seen != 2 {
		t.Fatalf("seen = %d, want 2", seen)
	}
}
