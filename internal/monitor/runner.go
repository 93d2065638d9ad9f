// Package monitor runs the polling loop: fetch chains for the watched
// symbols, recompute profiles, refresh alert levels, and fan out
// crossings and signals.
package monitor

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/alert"
	"github.com/dgnsrekt/gex-monitor/internal/history"
	"github.com/dgnsrekt/gex-monitor/internal/notify"
	"github.com/dgnsrekt/gex-monitor/internal/scan"
	"github.com/dgnsrekt/gex-monitor/internal/session"
	"github.com/dgnsrekt/gex-monitor/internal/ws"
)

// Options configures a Runner. Hub, Notifier and Recorder are
// optional; nil sinks are skipped.
type Options struct {
	Symbols        []string
	PollInterval   time.Duration
	MarketDaysOnly bool
	AlertsEnabled  bool
	AlertCooldown  time.Duration
	Request        scan.Request // Symbols field is ignored; set per cycle
}

type Runner struct {
	opts     Options
	scanner  *scan.Scanner
	clock    *session.Clock
	hub      *ws.Hub
	notifier notify.Notifier
	recorder *history.Recorder
	monitors map[string]*alert.Monitor
	logger   *zap.Logger
}

// streamEnvelope wraps every payload pushed to WebSocket subscribers.
type streamEnvelope struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol"`
	Payload any    `json:"payload"`
}

func NewRunner(opts Options, scanner *scan.Scanner, clock *session.Clock, hub *ws.Hub, notifier notify.Notifier, recorder *history.Recorder, logger *zap.Logger) *Runner {
	r := &Runner{
		opts:     opts,
		scanner:  scanner,
		clock:    clock,
		hub:      hub,
		notifier: notifier,
		recorder: recorder,
		monitors: make(map[string]*alert.Monitor),
		logger:   logger,
	}

	for _, symbol := range opts.Symbols {
		m := alert.NewMonitor(symbol, opts.AlertCooldown, r.emitterFor(symbol), logger)
		m.SetEnabled(opts.AlertsEnabled)
		r.monitors[symbol] = m
	}
	return r
}

// emitterFor routes one symbol's crossing events to the hub and the
// push notifier. Notification happens off the monitor's lock.
func (r *Runner) emitterFor(symbol string) alert.Emitter {
	return alert.EmitterFunc(func(ev alert.Event) {
		if r.hub != nil {
			if payload, err := json.Marshal(streamEnvelope{Type: "alert", Symbol: symbol, Payload: ev}); err == nil {
				r.hub.Broadcast(symbol, payload)
			}
		}
		if r.notifier != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := r.notifier.SendAlert(ctx, ev); err != nil {
					r.logger.Warn("alert notification failed",
						zap.String("symbol", symbol), zap.Error(err))
				}
			}()
		}
	})
}

// Run polls until the context is cancelled. The first cycle fires
// immediately.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	r.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("monitor stopping")
			return
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	now := r.clock.Now()
	if r.opts.MarketDaysOnly && !r.clock.IsMarketDay(now) {
		r.logger.Debug("skipping cycle, market closed")
		return
	}

	req := r.opts.Request
	req.Symbols = r.opts.Symbols

	batch, err := r.scanner.Scan(ctx, req)
	if err != nil {
		r.logger.Error("scan cycle failed", zap.Error(err))
		return
	}

	for _, res := range batch.Results {
		r.apply(res)
	}

	r.logger.Debug("cycle complete",
		zap.Int("success", batch.Success),
		zap.Int("noData", batch.NoData),
		zap.Int("failed", batch.Failed),
	)
}

// apply folds one symbol result into alerting, streaming, and history.
func (r *Runner) apply(res scan.SymbolResult) {
	if res.Error != "" {
		r.logger.Warn("symbol cycle failed",
			zap.String("symbol", res.Symbol), zap.String("error", res.Error))
		return
	}
	if res.NoData || res.Profile == nil {
		return
	}
	p := res.Profile

	if m, ok := r.monitors[res.Symbol]; ok {
		m.SetLevels(p.ZeroGamma, p.CallWall, p.PutWall)
		m.Observe(p.SpotPrice)
	}

	if r.hub != nil {
		if payload, err := json.Marshal(streamEnvelope{Type: "profile", Symbol: res.Symbol, Payload: res}); err == nil {
			r.hub.Broadcast(res.Symbol, payload)
		}
	}

	if res.Signal != nil && r.notifier != nil {
		sig := res.Signal
		symbol := res.Symbol
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := r.notifier.SendSignal(ctx, symbol, sig); err != nil {
				r.logger.Warn("signal notification failed",
					zap.String("symbol", symbol), zap.Error(err))
			}
		}()
	}

	if r.recorder != nil {
		if err := r.recorder.Append(p); err != nil {
			r.logger.Warn("history append failed",
				zap.String("symbol", res.Symbol), zap.Error(err))
		}
	}
}
