package statsdb

import "database/sql"

// CycleRow is one cycle as the admin CLI sees it.
type CycleRow struct {
	ID            int64
	At            string
	Tick          uint64
	Money         float64
	MoneyRate     float64
	Rigs          int
	TotalFree     float64
	Dispatched    int
	Failed        int
	OverflowUnits int
	WaitMs        int64
}

// Totals aggregates the whole table.
type Totals struct {
	Cycles        int64
	Dispatched    int64
	Failed        int64
	OverflowUnits int64
	Trades        int64
	TradedShares  int64
}

// TradeRow is one trade as the admin CLI sees it.
type TradeRow struct {
	ID       int64
	At       string
	Symbol   string
	Side     string
	Shares   int64
	Filled   int64
	AvgPrice float64
	OK       bool
	Code     string
}

// RecentCycles returns the newest n cycles, newest first.
func (s *Store) RecentCycles(n int) ([]CycleRow, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.Query(
		`SELECT id,at,tick,money,money_rate,rigs,total_free,dispatched,failed,overflow_units,wait_ms
		 FROM cycles ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var c CycleRow
		if err := rows.Scan(&c.ID, &c.At, &c.Tick, &c.Money, &c.MoneyRate, &c.Rigs,
			&c.TotalFree, &c.Dispatched, &c.Failed, &c.OverflowUnits, &c.WaitMs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TotalsRow sums dispatch and trade activity across the db.
func (s *Store) TotalsRow() (Totals, error) {
	var t Totals
	row := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(dispatched),0),
		        COALESCE(SUM(failed),0),
		        COALESCE(SUM(overflow_units),0)
		 FROM cycles`)
	if err := row.Scan(&t.Cycles, &t.Dispatched, &t.Failed, &t.OverflowUnits); err != nil {
		return t, err
	}
	row = s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(filled),0) FROM trades`)
	if err := row.Scan(&t.Trades, &t.TradedShares); err != nil {
		return t, err
	}
	return t, nil
}

// RecentTrades returns the newest n trades, newest first.
func (s *Store) RecentTrades(n int) ([]TradeRow, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.Query(
		`SELECT id,at,symbol,side,shares,filled,avg_price,ok,COALESCE(code,'')
		 FROM trades ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var t TradeRow
		var ok int
		if err := rows.Scan(&t.ID, &t.At, &t.Symbol, &t.Side, &t.Shares, &t.Filled, &t.AvgPrice, &ok, &t.Code); err != nil {
			return nil, err
		}
		t.OK = ok != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// TargetUnits returns total dispatched units per target, busiest first.
func (s *Store) TargetUnits(n int) (map[string]int64, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.Query(
		`SELECT target, SUM(units) FROM dispatches WHERE ok = 1 GROUP BY target ORDER BY SUM(units) DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var target string
		var units sql.NullInt64
		if err := rows.Scan(&target, &units); err != nil {
			return nil, err
		}
		out[target] = units.Int64
	}
	return out, rows.Err()
}
