// Package safemode holds the session-wide degraded-operation flag.
//
// Safe mode is one-way: once enabled it stays enabled until the session is
// restarted. There is deliberately no Disable.
package safemode

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Controller is the safe-mode flag for one session.
type Controller struct {
	mu        sync.Mutex
	enabled   bool
	reason    string
	enabledAt time.Time
	listeners []func(reason string)
	log       zerolog.Logger
}

// New creates a controller with safe mode disabled.
func New(log zerolog.Logger) *Controller {
	return &Controller{log: log.With().Str("component", "safemode").Logger()}
}

// Enable turns safe mode on. Calls after the first are no-ops; the first
// reason is kept. Reports whether this call changed the state.
func (c *Controller) Enable(reason string) bool {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return false
	}
	c.enabled = true
	c.reason = reason
	c.enabledAt = time.Now()
	listeners := append([]func(string){}, c.listeners...)
	c.mu.Unlock()

	c.log.Warn().Str("reason", reason).Msg("safe mode enabled")
	for _, fn := range listeners {
		fn(reason)
	}
	return true
}

// IsEnabled reports whether safe mode is on.
func (c *Controller) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Reason returns the reason given to the first Enable call.
func (c *Controller) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// EnabledAt returns when safe mode was turned on, or the zero time.
func (c *Controller) EnabledAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabledAt
}

// OnEnable registers fn to run once when safe mode turns on. If safe mode is
// already on, fn runs immediately.
func (c *Controller) OnEnable(fn func(reason string)) {
	c.mu.Lock()
	if c.enabled {
		reason := c.reason
		c.mu.Unlock()
		fn(reason)
		return
	}
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}
