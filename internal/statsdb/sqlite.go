// Package statsdb keeps a SQLite read-model of cycles, dispatches, and
// trades for the admin CLI. The zstd journals remain the source of truth;
// this index may drop writes under backpressure without losing anything
// that matters.
package statsdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"netrunner.ai/internal/market"
	"netrunner.ai/internal/sched"
)

type Store struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqCycle reqKind = iota + 1
	reqTrade
)

type req struct {
	kind  reqKind
	cycle sched.CycleEntry
	trade market.TradeEntry
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		// Generous buffer: a slow disk must never stall the cycle loop.
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is a fair
	// durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			tick INTEGER NOT NULL,
			money REAL NOT NULL,
			money_rate REAL NOT NULL,
			rigs INTEGER NOT NULL,
			total_free REAL NOT NULL,
			dispatched INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			overflow_units INTEGER NOT NULL,
			wait_ms INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_tick ON cycles(tick);`,
		`CREATE TABLE IF NOT EXISTS dispatches (
			cycle_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			rig TEXT NOT NULL,
			target TEXT NOT NULL,
			action TEXT NOT NULL,
			units INTEGER NOT NULL,
			ok INTEGER NOT NULL,
			handle TEXT,
			PRIMARY KEY (cycle_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_target ON dispatches(target, cycle_id);`,
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			shares INTEGER NOT NULL,
			filled INTEGER NOT NULL,
			avg_price REAL NOT NULL,
			score REAL NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Store) WriteCycle(entry sched.CycleEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqCycle, cycle: entry}:
	default:
		// Drop if the indexer falls behind; journals remain authoritative.
	}
	return nil
}

func (s *Store) WriteTrade(entry market.TradeEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTrade, trade: entry}:
	default:
	}
	return nil
}

func (s *Store) loop() {
	for r := range s.ch {
		switch r.kind {
		case reqCycle:
			s.insertCycle(r.cycle)
		case reqTrade:
			s.insertTrade(r.trade)
		}
	}
}

func (s *Store) insertCycle(e sched.CycleEntry) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	tx, err := s.db.Begin()
	if err != nil {
		return
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO cycles(at,tick,money,money_rate,rigs,total_free,dispatched,failed,overflow_units,wait_ms,raw_json)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.Tick, e.Money, e.MoneyRate, e.Rigs, e.TotalFree,
		e.Dispatched, e.Failed, e.OverflowUnits, e.WaitMs, string(raw),
	)
	if err != nil {
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		return
	}
	for i, a := range e.Assignments {
		ok := 0
		if a.OK {
			ok = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO dispatches(cycle_id,seq,rig,target,action,units,ok,handle) VALUES(?,?,?,?,?,?,?,?)`,
			id, i, a.Rig, a.Target, a.Action, a.Units, ok, a.Handle,
		); err != nil {
			return
		}
	}
	_ = tx.Commit()
}

func (s *Store) insertTrade(e market.TradeEntry) {
	ok := 0
	if e.OK {
		ok = 1
	}
	_, _ = s.db.Exec(
		`INSERT INTO trades(at,symbol,side,shares,filled,avg_price,score,ok,code) VALUES(?,?,?,?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.Symbol, e.Side, e.Shares, e.Filled, e.AvgPrice, e.Score, ok, e.Code,
	)
}
