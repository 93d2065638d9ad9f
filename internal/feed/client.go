package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/gex-monitor/internal/gex"
)

const (
	primaryChainDomain  = "chains.gex.bot"
	fallbackChainDomain = "chains.gexbot.com"

	expirationLayout = "2006-01-02"
)

// HTTPProvider fetches chains over the provider's REST API.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger

	now func() time.Time
}

// chainResponse is the provider wire format. Prices come back as
// strings; they are parsed as decimals so quotes like 612.3000000001
// do not leak float artifacts into strikes.
type chainResponse struct {
	Symbol  string             `json:"symbol"`
	Spot    decimal.Decimal    `json:"spot"`
	Options []contractResponse `json:"options"`
}

type contractResponse struct {
	Strike       decimal.Decimal `json:"strike"`
	Type         string          `json:"type"`
	Gamma        float64         `json:"gamma"`
	OpenInterest int64           `json:"open_interest"`
	Volume       int64           `json:"volume"`
	Expiration   string          `json:"expiration"`
}

func NewHTTPProvider(baseURL, apiKey string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPProvider {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	return &HTTPProvider{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
		now:        time.Now,
	}
}

func (p *HTTPProvider) Snapshot(ctx context.Context, symbol string, window FilterWindow) (*ChainSnapshot, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/chain/%s", p.baseURL, url.PathEscape(symbol))
	p.logger.Debug("requesting chain", zap.String("url", reqURL))

	body, err := p.fetch(ctx, reqURL)
	if err != nil && strings.Contains(reqURL, primaryChainDomain) {
		fallbackURL := strings.Replace(reqURL, primaryChainDomain, fallbackChainDomain, 1)
		p.logger.Info("retrying with fallback domain",
			zap.String("original", reqURL),
			zap.String("fallback", fallbackURL),
			zap.Error(err))
		body, err = p.fetch(ctx, fallbackURL)
	}
	if err != nil {
		return nil, err
	}

	var chain chainResponse
	if err := json.Unmarshal(body, &chain); err != nil {
		return nil, fmt.Errorf("decoding chain response: %w", err)
	}

	return p.buildSnapshot(symbol, chain, window)
}

func (p *HTTPProvider) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= p.retryCount; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			p.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Basic "+p.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				lastErr = ErrTimeout
			} else {
				lastErr = err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNoOptions
		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, ErrAuthFailed
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = ErrTimeout
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (p *HTTPProvider) buildSnapshot(symbol string, chain chainResponse, window FilterWindow) (*ChainSnapshot, error) {
	now := p.now()
	spot, _ := chain.Spot.Float64()
	if spot <= 0 {
		return nil, fmt.Errorf("provider returned non-positive spot %v for %s", chain.Spot, symbol)
	}

	lo := spot * (1 - window.StrikeRangePct)
	hi := spot * (1 + window.StrikeRangePct)
	latest := now.AddDate(0, 0, window.MaxDTE)

	contracts := make([]gex.Contract, 0, len(chain.Options))
	for _, opt := range chain.Options {
		typ, err := parseOptionType(opt.Type)
		if err != nil {
			p.logger.Warn("skipping contract with unknown type",
				zap.String("symbol", symbol), zap.String("type", opt.Type))
			continue
		}

		exp, err := time.Parse(expirationLayout, opt.Expiration)
		if err != nil {
			p.logger.Warn("skipping contract with bad expiration",
				zap.String("symbol", symbol), zap.String("expiration", opt.Expiration))
			continue
		}
		if exp.After(latest) {
			continue
		}

		strike, _ := opt.Strike.Float64()
		if strike < lo || strike > hi {
			continue
		}

		contracts = append(contracts, gex.Contract{
			Strike:       strike,
			Type:         typ,
			Gamma:        opt.Gamma,
			OpenInterest: opt.OpenInterest,
			Volume:       opt.Volume,
		})
	}

	if len(contracts) == 0 {
		return nil, ErrNoOptions
	}

	return &ChainSnapshot{
		Symbol:    symbol,
		Spot:      spot,
		Contracts: contracts,
		FetchedAt: now,
	}, nil
}

func parseOptionType(s string) (gex.OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return gex.Call, nil
	case "PUT", "P":
		return gex.Put, nil
	default:
		return "", fmt.Errorf("unknown option type %q", s)
	}
}
