package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"netrunner.ai/internal/dash"
	"netrunner.ai/internal/grid"
	"netrunner.ai/internal/journal"
	"netrunner.ai/internal/market"
	"netrunner.ai/internal/purchase"
	"netrunner.ai/internal/sched"
	"netrunner.ai/internal/statsdb"
	"netrunner.ai/internal/transport/ws"
	"netrunner.ai/internal/tuning"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/ws", "host ws url")
		configPath = flag.String("config", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "./data", "runtime data directory (journals, stats db)")
		target     = flag.String("target", "", "plan for exactly this target id (debugging)")
		dryRun     = flag.Bool("dry_run", false, "plan and report without dispatching")
		reserve    = flag.Float64("reserve", -1, "home rig capacity reserve (overrides tuning when >= 0)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite stats index")
		addr       = flag.String("addr", "127.0.0.1:8091", "http listen address for /healthz and /metrics (empty to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[agent] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *configPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := ws.Dial(dialCtx, *url, tune.AgentName, logger)
	dialCancel()
	if err != nil {
		logger.Fatalf("connect: %v", err)
	}
	defer client.Close()
	params := client.Params()
	logger.Printf("connected session=%s home_rig=%s suppress_per_unit=%v",
		client.SessionID(), params.HomeRig, params.SuppressPerUnit)

	cycleLog := journal.NewCycleLogger(*dataDir)
	defer cycleLog.Close()
	tradeLog := journal.NewTradeLogger(*dataDir)
	defer tradeLog.Close()

	var db *statsdb.Store
	if !*disableDB {
		db, err = statsdb.Open(filepath.Join(*dataDir, "stats.db"))
		if err != nil {
			logger.Fatalf("open stats db: %v", err)
		}
		defer db.Close()
	}

	homeReserve := tune.Cycle.HomeReserve
	if *reserve >= 0 {
		homeReserve = *reserve
	}

	cfg := sched.Config{
		Eligibility: sched.Eligibility{
			ExcludePrefixes: tune.Cycle.ExcludePrefixes,
			MaxTargets:      tune.Cycle.TopTargets,
		},
		Classify: sched.ClassifyConfig{
			ResistanceBuffer: tune.Cycle.ResistanceBuffer,
			ResourceFraction: tune.Cycle.ResourceFraction,
		},
		Reserve: sched.ReservePolicy{
			HomeRig:     params.HomeRig,
			HomeReserve: homeReserve,
		},
		HarvestFraction: tune.Cycle.HarvestFraction,
		MinWait:         time.Duration(tune.Cycle.MinWaitMs) * time.Millisecond,
		MaxWait:         time.Duration(tune.Cycle.MaxWaitMs) * time.Millisecond,
		WaitMargin:      time.Duration(tune.Cycle.WaitMarginMs) * time.Millisecond,
		TargetOverride:  *target,
		DryRun:          *dryRun,
	}

	var mets metrics
	printer := dash.NewPrinter(os.Stdout)

	ctrl := sched.NewController(client, params, cfg, logger)
	ctrl.OnCycle = func(e sched.CycleEntry) {
		if err := cycleLog.WriteCycle(e); err != nil {
			logger.Printf("journal: %v", err)
		}
		if db != nil {
			_ = db.WriteCycle(e)
		}
		_ = printer.WriteCycle(e)
		mets.observeCycle(e)
	}

	if tune.Market.Enabled {
		trader := market.NewTrader(client, market.Config{
			BuyThreshold:  tune.Market.BuyThreshold,
			SellThreshold: tune.Market.SellThreshold,
			MaxOrderValue: tune.Market.MaxOrderValue,
			CashFloor:     tune.Market.CashFloor,
		}, logger)
		trader.OnTrade = func(e market.TradeEntry) {
			if err := tradeLog.WriteTrade(e); err != nil {
				logger.Printf("trade journal: %v", err)
			}
			if db != nil {
				_ = db.WriteTrade(e)
			}
			mets.trades.Add(1)
		}
		go func() {
			if err := trader.Run(ctx, 10*time.Second); err != nil && ctx.Err() == nil {
				logger.Printf("trader stopped: %v", err)
			}
		}()
	}

	if tune.Purchase.Enabled && !*dryRun {
		go runPurchases(ctx, client, tune.Purchase, &mets, logger)
	}

	if *addr != "" {
		go serveHTTP(ctx, *addr, &mets, logger)
	}

	if err := ctrl.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("controller: %v", err)
	}
	logger.Printf("shutting down")
}

// runPurchases periodically spends a budget share of current money on the
// cheapest-last catalog plan. Best effort: a refused purchase is logged and
// the rest of the plan still runs.
func runPurchases(ctx context.Context, client grid.Client, cfg tuning.Purchase, mets *metrics, logger *log.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := client.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Printf("purchase snapshot: %v", err)
			continue
		}
		budget := snap.Player.Money * cfg.BudgetShare
		for _, o := range purchase.Plan(budget, snap.Catalog, cfg.CostEscalator) {
			res, err := client.Purchase(ctx, o.ItemID, o.Qty)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Printf("purchase %s x%d: %v", o.ItemID, o.Qty, err)
				continue
			}
			if res.Bought < o.Qty {
				logger.Printf("purchase %s: bought %d/%d (%s)", o.ItemID, res.Bought, o.Qty, res.Code)
			} else {
				logger.Printf("purchase %s x%d spent=%.0f", o.ItemID, res.Bought, res.Spent)
			}
			mets.purchases.Add(int64(res.Bought))
		}
	}
}

// metrics are the handful of counters and last-cycle gauges exposed on
// /metrics. Cheap enough to update from the cycle observer inline.
type metrics struct {
	cycles     atomic.Int64
	dispatched atomic.Int64
	failed     atomic.Int64
	trades     atomic.Int64
	purchases  atomic.Int64

	mu   sync.Mutex
	last sched.CycleEntry
}

func (m *metrics) observeCycle(e sched.CycleEntry) {
	m.cycles.Add(1)
	m.dispatched.Add(int64(e.Dispatched))
	m.failed.Add(int64(e.Failed))
	m.mu.Lock()
	m.last = e
	m.mu.Unlock()
}

func serveHTTP(ctx context.Context, addr string, mets *metrics, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		mets.mu.Lock()
		last := mets.last
		mets.mu.Unlock()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP netrunner_cycles_total Completed scheduling cycles.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_cycles_total counter\n")
		fmt.Fprintf(rw, "netrunner_cycles_total %d\n", mets.cycles.Load())

		fmt.Fprintf(rw, "# HELP netrunner_dispatch_total Dispatches accepted by the host.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_dispatch_total counter\n")
		fmt.Fprintf(rw, "netrunner_dispatch_total %d\n", mets.dispatched.Load())

		fmt.Fprintf(rw, "# HELP netrunner_dispatch_failed_total Dispatches refused or failed.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_dispatch_failed_total counter\n")
		fmt.Fprintf(rw, "netrunner_dispatch_failed_total %d\n", mets.failed.Load())

		fmt.Fprintf(rw, "# HELP netrunner_trades_total Market orders attempted.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_trades_total counter\n")
		fmt.Fprintf(rw, "netrunner_trades_total %d\n", mets.trades.Load())

		fmt.Fprintf(rw, "# HELP netrunner_purchases_total Catalog items bought.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_purchases_total counter\n")
		fmt.Fprintf(rw, "netrunner_purchases_total %d\n", mets.purchases.Load())

		fmt.Fprintf(rw, "# HELP netrunner_money Player money at the last cycle.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_money gauge\n")
		fmt.Fprintf(rw, "netrunner_money %.2f\n", last.Money)

		fmt.Fprintf(rw, "# HELP netrunner_money_rate Smoothed money rate per second.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_money_rate gauge\n")
		fmt.Fprintf(rw, "netrunner_money_rate %.4f\n", last.MoneyRate)

		fmt.Fprintf(rw, "# HELP netrunner_free_capacity Total schedulable capacity at the last cycle.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_free_capacity gauge\n")
		fmt.Fprintf(rw, "netrunner_free_capacity %.2f\n", last.TotalFree)

		fmt.Fprintf(rw, "# HELP netrunner_wait_ms Sleep chosen after the last cycle.\n")
		fmt.Fprintf(rw, "# TYPE netrunner_wait_ms gauge\n")
		fmt.Fprintf(rw, "netrunner_wait_ms %d\n", last.WaitMs)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("http listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("http: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
