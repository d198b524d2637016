// Command admin inspects the agent's sqlite stats index: recent cycles,
// lifetime totals, recent trades, and per-target dispatch volume.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"netrunner.ai/internal/statsdb"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "totals":
			totalsCmd(os.Args[2:])
			return
		case "trades":
			tradesCmd(os.Args[2:])
			return
		case "targets":
			targetsCmd(os.Args[2:])
			return
		}
	}
	cyclesCmd(os.Args[1:])
}

func openStore(fs *flag.FlagSet, args []string) (*statsdb.Store, int) {
	dataDir := fs.String("data", "./data", "runtime data directory")
	n := fs.Int("n", 20, "row limit")
	_ = fs.Parse(args)

	s, err := statsdb.Open(filepath.Join(*dataDir, "stats.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "open stats db:", err)
		os.Exit(1)
	}
	return s, *n
}

func cyclesCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	s, n := openStore(fs, args)
	defer s.Close()

	rows, err := s.RecentCycles(n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAT\tTICK\tMONEY\tRATE\tRIGS\tFREE\tDISP\tFAIL\tOVER\tWAIT")
	for _, c := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.0f\t%.1f\t%d\t%.1f\t%d\t%d\t%d\t%s\n",
			c.ID, shortTime(c.At), c.Tick, c.Money, c.MoneyRate, c.Rigs, c.TotalFree,
			c.Dispatched, c.Failed, c.OverflowUnits, time.Duration(c.WaitMs)*time.Millisecond)
	}
	_ = tw.Flush()
}

func totalsCmd(args []string) {
	fs := flag.NewFlagSet("totals", flag.ExitOnError)
	s, _ := openStore(fs, args)
	defer s.Close()

	t, err := s.TotalsRow()
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	fmt.Printf("cycles=%d dispatched=%d failed=%d overflow_units=%d trades=%d traded_shares=%d\n",
		t.Cycles, t.Dispatched, t.Failed, t.OverflowUnits, t.Trades, t.TradedShares)
}

func tradesCmd(args []string) {
	fs := flag.NewFlagSet("trades", flag.ExitOnError)
	s, n := openStore(fs, args)
	defer s.Close()

	rows, err := s.RecentTrades(n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAT\tSYMBOL\tSIDE\tSHARES\tFILLED\tAVG\tOK\tCODE")
	for _, t := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%.2f\t%v\t%s\n",
			t.ID, shortTime(t.At), t.Symbol, t.Side, t.Shares, t.Filled, t.AvgPrice, t.OK, t.Code)
	}
	_ = tw.Flush()
}

func targetsCmd(args []string) {
	fs := flag.NewFlagSet("targets", flag.ExitOnError)
	s, n := openStore(fs, args)
	defer s.Close()

	units, err := s.TargetUnits(n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	type row struct {
		target string
		units  int64
	}
	rows := make([]row, 0, len(units))
	for target, u := range units {
		rows = append(rows, row{target, u})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].units != rows[j].units {
			return rows[i].units > rows[j].units
		}
		return rows[i].target < rows[j].target
	})
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tUNITS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\n", r.target, r.units)
	}
	_ = tw.Flush()
}

func shortTime(at string) string {
	t, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return at
	}
	return t.UTC().Format("01-02 15:04:05")
}
