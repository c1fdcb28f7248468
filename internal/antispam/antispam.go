// Package antispam throttles how fast one bench may issue commands.
package antispam

import (
	"sync"
	"time"
)

// Config holds the command flood limits.
type Config struct {
	Enabled bool `yaml:"enabled" env:"CRUCIBLE_ANTISPAM_ENABLED"`

	// MaxCommands is how many commands fit in one Window.
	MaxCommands int           `yaml:"max_commands"`
	Window      time.Duration `yaml:"window"`
}

// DefaultConfig returns limits loose enough for a human at a keyboard.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxCommands: 20,
		Window:      5 * time.Second,
	}
}

// Tracker is a sliding-window counter for a single bench.
type Tracker struct {
	mu     sync.Mutex
	config Config
	times  []time.Time // accepted commands inside the window, oldest first
	now    func() time.Time
}

// NewTracker creates a tracker with the given limits.
func NewTracker(config Config) *Tracker {
	return &Tracker{
		config: config,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// CheckResult says whether a command may run and, if not, how long to wait.
type CheckResult struct {
	Allowed bool
	Wait    time.Duration
}

// Check records a command if it fits the window.
func (t *Tracker) Check() CheckResult {
	if !t.config.Enabled || t.config.MaxCommands <= 0 || t.config.Window <= 0 {
		return CheckResult{Allowed: true}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.config.Window)
	kept := t.times[:0]
	for _, at := range t.times {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	t.times = kept

	if len(t.times) >= t.config.MaxCommands {
		return CheckResult{Wait: t.times[0].Add(t.config.Window).Sub(now)}
	}
	t.times = append(t.times, now)
	return CheckResult{Allowed: true}
}

// WaitSeconds rounds the wait up to whole seconds for display.
func (r CheckResult) WaitSeconds() int {
	if r.Wait <= 0 {
		return 0
	}
	return int((r.Wait + time.Second - 1) / time.Second)
}

// Reset clears the window.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.times = nil
}
