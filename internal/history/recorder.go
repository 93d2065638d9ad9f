// Package history persists computed profiles as zstd-compressed JSONL
// for later replay and backtesting.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

const fileSuffix = ".jsonl.zst"

// Recorder appends profiles to per-day, per-symbol files laid out as
// <root>/YYYY-MM-DD/SYMBOL.jsonl.zst. One open writer per file; files
// roll when the date changes.
type Recorder struct {
	mu      sync.Mutex
	root    string
	logger  *zap.Logger
	writers map[string]*symbolWriter

	now func() time.Time
}

type symbolWriter struct {
	file *os.File
	zw   *zstd.Encoder
	day  string
}

func NewRecorder(root string, logger *zap.Logger) (*Recorder, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating history root: %w", err)
	}
	return &Recorder{
		root:    root,
		logger:  logger,
		writers: make(map[string]*symbolWriter),
		now:     time.Now,
	}, nil
}

// Append writes one profile to its symbol's file for today.
func (r *Recorder) Append(p *gex.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := r.now().Format("2006-01-02")
	w, err := r.writerFor(p.Symbol, day)
	if err != nil {
		return err
	}

	line, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.zw.Write(line); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}

func (r *Recorder) writerFor(symbol, day string) (*symbolWriter, error) {
	if w, ok := r.writers[symbol]; ok {
		if w.day == day {
			return w, nil
		}
		// Date rolled; finish yesterday's file.
		if err := r.closeWriter(symbol, w); err != nil {
			r.logger.Warn("closing rolled history file", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	dir := filepath.Join(r.root, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating day directory: %w", err)
	}

	path := filepath.Join(dir, symbol+fileSuffix)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}

	zw, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	w := &symbolWriter{file: file, zw: zw, day: day}
	r.writers[symbol] = w
	return w, nil
}

func (r *Recorder) closeWriter(symbol string, w *symbolWriter) error {
	delete(r.writers, symbol)
	zerr := w.zw.Close()
	ferr := w.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

// Close flushes and closes every open file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for symbol, w := range r.writers {
		if err := r.closeWriter(symbol, w); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadDay loads every profile recorded for a symbol on the given day
// (YYYY-MM-DD). A missing file returns an empty slice.
func (r *Recorder) ReadDay(symbol, day string) ([]*gex.Profile, error) {
	path := filepath.Join(r.root, day, symbol+fileSuffix)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zr, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer zr.Close()

	var profiles []*gex.Profile
	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p gex.Profile
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("decoding history line: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	return profiles, nil
}
