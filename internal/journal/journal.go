// Package journal writes the controller's per-cycle and per-trade records as
// hour-rotated zstd-compressed JSONL. The journal is the source of truth for
// what the agent decided and dispatched; the stats db is only a read model
// over it.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"netrunner.ai/internal/market"
	"netrunner.ai/internal/sched"
)

type lineWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func newLineWriter(baseDir, prefix string) *lineWriter {
	return &lineWriter{baseDir: baseDir, prefix: prefix}
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *lineWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *lineWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *lineWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

func (w *lineWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// CycleLogger writes one JSONL entry per scheduling cycle (compressed).
type CycleLogger struct{ w *lineWriter }

func NewCycleLogger(dataDir string) *CycleLogger {
	return &CycleLogger{w: newLineWriter(filepath.Join(dataDir, "cycles"), "cycles")}
}

func (l *CycleLogger) WriteCycle(e sched.CycleEntry) error { return l.w.Write(e) }
func (l *CycleLogger) Close() error                        { return l.w.Close() }

// TradeLogger writes one JSONL entry per market pass (compressed).
type TradeLogger struct{ w *lineWriter }

func NewTradeLogger(dataDir string) *TradeLogger {
	return &TradeLogger{w: newLineWriter(filepath.Join(dataDir, "trades"), "trades")}
}

func (l *TradeLogger) WriteTrade(e market.TradeEntry) error { return l.w.Write(e) }
func (l *TradeLogger) Close() error                         { return l.w.Close() }
