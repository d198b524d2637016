// Package dash renders finished cycles as plain text for a terminal.
package dash

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"netrunner.ai/internal/sched"
)

// Printer writes one block per cycle to an io.Writer. Safe for use as an
// OnCycle observer from the controller goroutine while main owns the writer.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) WriteCycle(e sched.CycleEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Render(p.out, e)
}

// Render writes one cycle as a summary line plus a plan table.
func Render(out io.Writer, e sched.CycleEntry) error {
	_, err := fmt.Fprintf(out, "tick=%d money=%.0f rate=%.1f/s rigs=%d free=%.1f dispatched=%d failed=%d wait=%s\n",
		e.Tick, e.Money, e.MoneyRate, e.Rigs, e.TotalFree, e.Dispatched, e.Failed,
		time.Duration(e.WaitMs)*time.Millisecond)
	if err != nil {
		return err
	}
	if len(e.Plans) == 0 {
		_, err = fmt.Fprintln(out, "  (no eligible targets)")
		return err
	}

	tw := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  TARGET\tACTION\tSCORE\tDEMAND\tASSIGNED")
	for _, p := range e.Plans {
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%d\t%d\n", p.Target, p.Action, p.Score, p.Demand, p.Assigned)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if e.OverflowUnits > 0 {
		if _, err := fmt.Fprintf(out, "  overflow=%d units onto %s\n", e.OverflowUnits, e.Plans[0].Target); err != nil {
			return err
		}
	}
	for _, a := range e.Assignments {
		if a.OK {
			continue
		}
		if _, err := fmt.Fprintf(out, "  refused: %s %s -> %s x%d\n", a.Action, a.Rig, a.Target, a.Units); err != nil {
			return err
		}
	}
	return nil
}
