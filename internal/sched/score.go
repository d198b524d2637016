package sched

import (
	"sort"
	"strings"
	"time"

	"netrunner.ai/internal/grid"
)

// Eligibility gates which targets are worth planning for at all.
type Eligibility struct {
	// Player capability; targets above it cannot be touched yet.
	Capability int
	// Skip targets whose id carries one of these prefixes (purchased rigs
	// and other player-owned servers share the target namespace).
	ExcludePrefixes []string
	// Keep at most this many ranked targets. 0 means no cap.
	MaxTargets int
}

func Eligible(t grid.Target, e Eligibility) bool {
	if !t.Owned {
		return false
	}
	if t.Requirement > e.Capability {
		return false
	}
	if t.MaxResource <= 0 {
		return false
	}
	for _, p := range e.ExcludePrefixes {
		if p != "" && strings.HasPrefix(t.ID, p) {
			return false
		}
	}
	return true
}

// Score is resource yield per second of harvest, discounted by how expensive
// the target is to keep suppressed. Low resistance floors are cheap to hold
// down, so they win ties against rich-but-hard targets.
func Score(t grid.Target, harvestTime time.Duration) float64 {
	secs := harvestTime.Seconds()
	if secs <= 0 {
		secs = 1
	}
	floor := t.MinResistance
	if floor <= 0 {
		floor = 1
	}
	return t.MaxResource / secs / floor
}

// Rank filters to eligible targets, scores them, and returns fresh plans in
// descending score order, truncated to e.MaxTargets. The sort is stable so
// equal scores keep snapshot order.
func Rank(targets []grid.Target, est map[string]grid.Estimates, e Eligibility) []*Plan {
	plans := make([]*Plan, 0, len(targets))
	for _, t := range targets {
		if !Eligible(t, e) {
			continue
		}
		plans = append(plans, &Plan{
			Target: t,
			Score:  Score(t, est[t.ID].HarvestTime),
		})
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Score > plans[j].Score })
	if e.MaxTargets > 0 && len(plans) > e.MaxTargets {
		plans = plans[:e.MaxTargets]
	}
	return plans
}
