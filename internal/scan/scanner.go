// Package scan runs the full pipeline (fetch, aggregate, analyze,
// classify, signal) for one symbol or a batch of symbols.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/feed"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

// Request parameterizes one scan.
type Request struct {
	Symbols         []string
	Window          feed.FilterWindow
	MajorThresholdM float64
	Signals         gex.SignalConfig
}

// SymbolResult is the outcome for one symbol. Exactly one of Profile
// or Error is set; NoData marks symbols without listed options.
type SymbolResult struct {
	Symbol  string       `json:"symbol"`
	Profile *gex.Profile `json:"profile,omitempty"`
	Regime  gex.Regime   `json:"regime,omitempty"`
	Signal  *gex.Signal  `json:"signal,omitempty"`
	NoData  bool         `json:"no_data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type BatchResult struct {
	Total   int            `json:"total"`
	Success int            `json:"success"`
	NoData  int            `json:"no_data"`
	Failed  int            `json:"failed"`
	Results []SymbolResult `json:"results"`
}

type Scanner struct {
	provider feed.Provider
	workers  int
	logger   *zap.Logger

	now func() time.Time
}

func NewScanner(provider feed.Provider, workers int, logger *zap.Logger) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		provider: provider,
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

// UseClock overrides the scanner's time source. Signal generation gates
// the late-day pin on the wall-clock hour, which must be exchange-local;
// services pass the session clock's Now here.
func (s *Scanner) UseClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Scan processes the request's symbols on a worker pool. One symbol
// failing never aborts the batch.
func (s *Scanner) Scan(ctx context.Context, req Request) (*BatchResult, error) {
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}
	if req.MajorThresholdM <= 0 {
		return nil, fmt.Errorf("major threshold must be positive, got %v", req.MajorThresholdM)
	}

	batch := &BatchResult{Total: len(req.Symbols)}
	if len(req.Symbols) == 0 {
		return batch, nil
	}

	jobs := make(chan string, len(req.Symbols))
	results := make(chan SymbolResult, len(req.Symbols))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				res := s.ScanOne(ctx, symbol, req)

				select {
				case <-ctx.Done():
					return
				case results <- res:
				}
			}
		}()
	}

	go func() {
		for _, symbol := range req.Symbols {
			select {
			case <-ctx.Done():
				return
			case jobs <- symbol:
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		switch {
		case res.NoData:
			batch.NoData++
		case res.Error != "":
			batch.Failed++
		default:
			batch.Success++
		}
		batch.Results = append(batch.Results, res)
	}

	sort.Slice(batch.Results, func(i, j int) bool {
		return batch.Results[i].Symbol < batch.Results[j].Symbol
	})

	return batch, nil
}

// ScanOne runs the pipeline for a single symbol.
func (s *Scanner) ScanOne(ctx context.Context, symbol string, req Request) SymbolResult {
	res := SymbolResult{Symbol: symbol}

	snap, err := s.provider.Snapshot(ctx, symbol, req.Window)
	if err != nil {
		if errors.Is(err, feed.ErrNoOptions) {
			s.logger.Debug("no options", zap.String("symbol", symbol))
			res.NoData = true
			return res
		}
		s.logger.Warn("snapshot failed", zap.String("symbol", symbol), zap.Error(err))
		res.Error = err.Error()
		return res
	}

	rows := gex.AggregateStrikes(snap.Contracts, snap.Spot)
	profile := gex.Analyze(symbol, rows, snap.Spot, req.MajorThresholdM)
	regime := gex.Classify(profile.TotalNetGexM)

	res.Profile = profile
	res.Regime = regime
	res.Signal = gex.GenerateSignal(regime, profile, s.now(), req.Signals)
	return res
}
