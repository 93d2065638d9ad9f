// Package alert implements the level-crossing monitor: a per-symbol
// state machine that watches spot ticks against the profile's key
// levels and emits de-duplicated crossing events.
package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Direction of a level crossing.
type Direction string

const (
	Above Direction = "ABOVE"
	Below Direction = "BELOW"
)

// Level names tracked per symbol.
const (
	LevelZeroGamma = "Zero Gamma"
	LevelCallWall  = "Call Wall"
	LevelPutWall   = "Put Wall"
)

// DefaultCooldown is the per-level re-trigger window.
const DefaultCooldown = 5 * time.Minute

// Event is one crossing alert.
type Event struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Level      string    `json:"level"`
	Direction  Direction `json:"direction"`
	LevelValue float64   `json:"level_value"`
	Price      float64   `json:"price"`
	At         time.Time `json:"at"`
}

// Emitter receives crossing events. Emission must not block: the
// monitor calls it inline while holding its lock.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }

type levelState struct {
	value         *float64
	lastTriggered time.Time
}

// Monitor tracks one symbol. Level values are refreshed from the
// latest profile independently of price ticks; cooldown is tracked
// per level so a call-wall alert never suppresses a zero-gamma one.
// State is owned by the monitor and guarded by a mutex; callers must
// deliver a symbol's ticks in arrival order.
type Monitor struct {
	mu       sync.Mutex
	symbol   string
	cooldown time.Duration
	emitter  Emitter
	logger   *zap.Logger

	enabled bool
	prev    *float64
	levels  map[string]*levelState

	now func() time.Time
}

// NewMonitor creates an enabled monitor for one symbol. A nil emitter
// tracks state without emitting.
func NewMonitor(symbol string, cooldown time.Duration, emitter Emitter, logger *zap.Logger) *Monitor {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		symbol:   symbol,
		cooldown: cooldown,
		emitter:  emitter,
		logger:   logger,
		enabled:  true,
		levels: map[string]*levelState{
			LevelZeroGamma: {},
			LevelCallWall:  {},
			LevelPutWall:   {},
		},
		now: time.Now,
	}
}

// SetLevels refreshes the tracked level values from a new profile.
// Nil values mark a level undefined; it is skipped until it returns.
func (m *Monitor) SetLevels(zeroGamma, callWall, putWall *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[LevelZeroGamma].value = zeroGamma
	m.levels[LevelCallWall].value = callWall
	m.levels[LevelPutWall].value = putWall
}

// SetEnabled toggles emission. The previous price keeps tracking while
// disabled so re-enabling resumes from the current price, not a stale
// one. Crossings seen while disabled spend no cooldown.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Observe evaluates one spot price sample against every defined level.
// The first sample only seeds the previous price; after evaluating all
// levels the previous price advances unconditionally.
func (m *Monitor) Observe(price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		p := price
		m.prev = &p
	}()

	if m.prev == nil {
		return
	}
	prev := *m.prev
	now := m.now()

	for name, state := range m.levels {
		if state.value == nil {
			continue
		}
		level := *state.value

		if !state.lastTriggered.IsZero() && now.Sub(state.lastTriggered) < m.cooldown {
			continue
		}

		var dir Direction
		switch {
		case prev < level && level <= price:
			dir = Above
		case prev > level && level >= price:
			dir = Below
		default:
			continue
		}

		if !m.enabled {
			continue
		}
		state.lastTriggered = now

		ev := Event{
			ID:         uuid.New().String(),
			Symbol:     m.symbol,
			Level:      name,
			Direction:  dir,
			LevelValue: level,
			Price:      price,
			At:         now,
		}
		m.logger.Debug("level crossed",
			zap.String("symbol", ev.Symbol),
			zap.String("level", ev.Level),
			zap.String("direction", string(ev.Direction)),
			zap.Float64("levelValue", ev.LevelValue),
			zap.Float64("price", ev.Price),
		)
		if m.emitter != nil {
			m.emitter.Emit(ev)
		}
	}
}
