// Command replay scans cycle journals and re-verifies what the scheduler
// recorded: per-rig capacity spending, demand caps, and overflow accounting.
// Exits non-zero when any cycle violates an invariant.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"netrunner.ai/internal/grid"
	"netrunner.ai/internal/journal"
	"netrunner.ai/internal/sched"
)

func main() {
	var (
		dataDir  = flag.String("data", "./data", "runtime data directory")
		costSupp = flag.Float64("cost_suppress", 1.75, "capacity cost of one SUPPRESS unit")
		costRepl = flag.Float64("cost_replenish", 1.75, "capacity cost of one REPLENISH unit")
		costHarv = flag.Float64("cost_harvest", 1.7, "capacity cost of one HARVEST unit")
		verbose  = flag.Bool("v", false, "print every cycle, not just violations")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags)

	costs := grid.UnitCosts{Suppress: *costSupp, Replenish: *costRepl, Harvest: *costHarv}
	dir := filepath.Join(*dataDir, "cycles")

	var (
		cycles     int
		dispatched int
		failed     int
		violations int
	)
	err := journal.ReadCycles(dir, func(e sched.CycleEntry) error {
		cycles++
		dispatched += e.Dispatched
		failed += e.Failed

		probs := check(e, costs)
		if len(probs) > 0 {
			violations += len(probs)
			for _, p := range probs {
				logger.Printf("tick=%d VIOLATION %s", e.Tick, p)
			}
		} else if *verbose {
			logger.Printf("tick=%d ok: plans=%d assignments=%d dispatched=%d wait=%dms",
				e.Tick, len(e.Plans), len(e.Assignments), e.Dispatched, e.WaitMs)
		}
		return nil
	})
	if err != nil {
		logger.Fatalf("read journals: %v", err)
	}

	logger.Printf("cycles=%d dispatched=%d failed=%d violations=%d", cycles, dispatched, failed, violations)
	if violations > 0 {
		os.Exit(1)
	}
}

// check re-derives the allocation invariants from one journaled cycle.
func check(e sched.CycleEntry, costs grid.UnitCosts) []string {
	var probs []string

	// Rig spending never exceeds the free capacity recorded for it.
	const eps = 1e-6
	spend := map[string]float64{}
	for _, a := range e.Assignments {
		kind, err := grid.ParseAction(a.Action)
		if err != nil {
			probs = append(probs, fmt.Sprintf("assignment %s->%s: %v", a.Rig, a.Target, err))
			continue
		}
		if a.Units <= 0 {
			probs = append(probs, fmt.Sprintf("assignment %s->%s: units=%d", a.Rig, a.Target, a.Units))
			continue
		}
		spend[a.Rig] += float64(a.Units) * costs.Cost(kind)
	}
	for rig, used := range spend {
		free, ok := e.RigFree[rig]
		if !ok {
			probs = append(probs, fmt.Sprintf("rig %s assigned but absent from rig_free", rig))
			continue
		}
		if used > free+eps {
			probs = append(probs, fmt.Sprintf("rig %s overspent: %.3f > %.3f free", rig, used, free))
		}
	}

	// Assignment units add up to what each plan says it got.
	perTarget := map[string]int{}
	for _, a := range e.Assignments {
		perTarget[a.Target] += a.Units
	}
	for i, p := range e.Plans {
		if got := perTarget[p.Target]; got != p.Assigned {
			probs = append(probs, fmt.Sprintf("plan %s: assigned=%d but assignments sum to %d", p.Target, p.Assigned, got))
		}
		// Only the top-ranked plan may take surplus past its demand.
		if i > 0 && p.Assigned > p.Demand {
			probs = append(probs, fmt.Sprintf("plan %s: assigned=%d > demand=%d on a non-top plan", p.Target, p.Assigned, p.Demand))
		}
	}
	if len(e.Plans) > 0 {
		top := e.Plans[0]
		over := top.Assigned - top.Demand
		if over < 0 {
			over = 0
		}
		if over != e.OverflowUnits {
			probs = append(probs, fmt.Sprintf("overflow_units=%d but top plan shows %d", e.OverflowUnits, over))
		}
	} else if e.OverflowUnits != 0 {
		probs = append(probs, fmt.Sprintf("overflow_units=%d with no plans", e.OverflowUnits))
	}

	return probs
}
