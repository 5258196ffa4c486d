// Package health polls collaborator health probes and runs their recovery
// actions.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/collab"
	"github.com/abhisek/smartroom/internal/recovery"
	"github.com/abhisek/smartroom/internal/safemode"
)

// Reporter receives HEALTH_CHECK_FAILED errors.
type Reporter interface {
	Handle(err *recovery.IntegrationError) recovery.Result
}

// Report is the outcome of one health check.
type Report struct {
	At        time.Time
	Checked   int
	Unhealthy []string
	Recovered []string
	// Escalated is set when a recovery action failed and global safe mode
	// was enabled.
	Escalated bool
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool { return len(r.Unhealthy) == 0 }

// Monitor checks a fixed list of collaborators.
type Monitor struct {
	handles  []collab.Handle
	safe     *safemode.Controller
	reporter Reporter
	now      func() time.Time
	log      zerolog.Logger
}

// NewMonitor creates a monitor over handles. The list is fixed from here on.
func NewMonitor(handles []collab.Handle, safe *safemode.Controller, reporter Reporter, log zerolog.Logger) *Monitor {
	return &Monitor{
		handles:  append([]collab.Handle(nil), handles...),
		safe:     safe,
		reporter: reporter,
		now:      time.Now,
		log:      log.With().Str("component", "health").Logger(),
	}
}

// PerformHealthCheck polls every probe and runs the recovery action of each
// unhealthy collaborator. A collaborator without a probe counts as healthy.
func (m *Monitor) PerformHealthCheck(ctx context.Context) Report {
	rep := Report{At: m.now()}
	for _, h := range m.handles {
		if ctx.Err() != nil {
			break
		}
		rep.Checked++
		if probe(h) {
			continue
		}
		rep.Unhealthy = append(rep.Unhealthy, h.Name)
		m.log.Warn().Str("collaborator", h.Name).Msg("health probe failed")

		if h.Recoverer == nil {
			continue
		}
		if err := recoverWith(h); err != nil {
			m.escalate(h.Name, err)
			rep.Escalated = true
			continue
		}
		rep.Recovered = append(rep.Recovered, h.Name)
		m.log.Info().Str("collaborator", h.Name).Msg("recovery action ran")
	}
	if len(rep.Unhealthy) > 0 {
		m.log.Warn().Int("failures", len(rep.Unhealthy)).Strs("unhealthy", rep.Unhealthy).Msg("health check found failures")
	}
	return rep
}

// Run checks every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.PerformHealthCheck(ctx)
		}
	}
}

func (m *Monitor) escalate(name string, cause error) {
	m.log.Error().Err(cause).Str("collaborator", name).Msg("recovery action failed, enabling safe mode")
	if m.safe != nil {
		m.safe.Enable("recovery failed: " + name)
	}
	if m.reporter != nil {
		m.reporter.Handle(recovery.NewError(recovery.HealthCheckFailed, name, cause))
	}
}

// probe treats a panicking probe as unhealthy.
func probe(h collab.Handle) (ok bool) {
	if h.Probe == nil {
		return true
	}
	defer func() {
		if p := recover(); p != nil {
			ok = false
		}
	}()
	return h.Probe.IsHealthy()
}

func recoverWith(h collab.Handle) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = eris.New(fmt.Sprintf("recovery action panicked: %v", p))
		}
	}()
	if err := h.Recoverer.EnableSafeMode(); err != nil {
		return eris.Wrapf(err, "%s recovery", h.Name)
	}
	return nil
}
