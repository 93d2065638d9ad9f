package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/feed"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
	"github.com/dgnsrekt/gex-monitor/internal/scan"
)

// calculateRequest computes a profile for one symbol. When contracts
// are supplied inline the provider is bypassed; otherwise the chain is
// fetched using the filter window.
type calculateRequest struct {
	Symbol          string         `json:"symbol"`
	Spot            float64        `json:"spot,omitempty"`
	Contracts       []gex.Contract `json:"contracts,omitempty"`
	MaxDTE          *int           `json:"max_dte,omitempty"`
	StrikeRangePct  *float64       `json:"strike_range_pct,omitempty"`
	MajorThresholdM *float64       `json:"major_threshold_m,omitempty"`
}

type calculateResponse struct {
	Profile *gex.Profile `json:"profile"`
	Regime  gex.Regime   `json:"regime"`
	Signal  *gex.Signal  `json:"signal,omitempty"`
}

type scanRequest struct {
	Symbols         []string `json:"symbols"`
	MaxDTE          *int     `json:"max_dte,omitempty"`
	StrikeRangePct  *float64 `json:"strike_range_pct,omitempty"`
	MajorThresholdM *float64 `json:"major_threshold_m,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

const defaultMajorThresholdM = 100.0

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	scanReq, err := buildScanRequest([]string{req.Symbol}, req.MaxDTE, req.StrikeRangePct, req.MajorThresholdM)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Inline contracts skip the provider entirely.
	if len(req.Contracts) > 0 {
		if req.Spot <= 0 {
			writeError(w, http.StatusBadRequest, "spot must be positive when contracts are supplied")
			return
		}
		rows := gex.AggregateStrikes(req.Contracts, req.Spot)
		profile := gex.Analyze(req.Symbol, rows, req.Spot, scanReq.MajorThresholdM)
		regime := gex.Classify(profile.TotalNetGexM)
		writeJSON(w, http.StatusOK, calculateResponse{
			Profile: profile,
			Regime:  regime,
			Signal:  gex.GenerateSignal(regime, profile, s.now(), scanReq.Signals),
		})
		return
	}

	res := s.scanner.ScanOne(r.Context(), req.Symbol, scanReq)
	if res.NoData {
		writeError(w, http.StatusNotFound, "no options listed for "+req.Symbol)
		return
	}
	if res.Error != "" {
		writeError(w, http.StatusBadGateway, res.Error)
		return
	}

	writeJSON(w, http.StatusOK, calculateResponse{
		Profile: res.Profile,
		Regime:  res.Regime,
		Signal:  res.Signal,
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	symbols := make([]string, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "at least one symbol is required")
		return
	}

	scanReq, err := buildScanRequest(symbols, req.MaxDTE, req.StrikeRangePct, req.MajorThresholdM)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := s.scanner.Scan(r.Context(), scanReq)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("scan complete",
		zap.Int("total", batch.Total),
		zap.Int("success", batch.Success),
		zap.Int("noData", batch.NoData),
		zap.Int("failed", batch.Failed),
	)
	writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"subscriptions":  s.hub.GetActiveGroups(),
	})
}

func buildScanRequest(symbols []string, maxDTE *int, strikeRangePct, majorThresholdM *float64) (scan.Request, error) {
	window := feed.DefaultWindow()
	if maxDTE != nil {
		window.MaxDTE = *maxDTE
	}
	if strikeRangePct != nil {
		window.StrikeRangePct = *strikeRangePct
	}

	req := scan.Request{
		Symbols:         symbols,
		Window:          window,
		MajorThresholdM: defaultMajorThresholdM,
		Signals:         gex.DefaultSignalConfig(),
	}
	if majorThresholdM != nil {
		req.MajorThresholdM = *majorThresholdM
	}

	if err := window.Validate(); err != nil {
		return scan.Request{}, err
	}
	if req.MajorThresholdM <= 0 {
		return scan.Request{}, errMajorThreshold
	}
	return req, nil
}

var errMajorThreshold = errors.New("major_threshold_m must be positive")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
