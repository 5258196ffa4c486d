// Package enginetest builds initialized engines for tests of the layers
// above the orchestrator.
package enginetest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartroom/internal/mode"
	"github.com/abhisek/smartroom/internal/orchestrator"
	"github.com/abhisek/smartroom/internal/simulation"
)

// Seed keeps simulation runs reproducible across tests.
const Seed = 11

// New returns an initialized engine with the standard collaborators, shut
// down when the test ends.
func New(t testing.TB, mutate ...func(*orchestrator.Options)) *orchestrator.Engine {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.Seed = Seed
	opts := orchestrator.Options{
		Collaborators: orchestrator.NewCollaborators(cfg, nil, zerolog.Nop()),
		Log:           zerolog.Nop(),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	e := orchestrator.New(opts)
	require.NoError(t, e.Initialize(context.Background()))
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
	return e
}

// InMode is New followed by a transition to m.
func InMode(t testing.TB, m mode.Mode, mutate ...func(*orchestrator.Options)) *orchestrator.Engine {
	t.Helper()
	e := New(t, mutate...)
	if m != mode.MainMenu {
		tr := e.TransitionToMode(context.Background(), m, mode.Smooth)
		require.False(t, tr.Failed || tr.Skipped, "enter %s", m)
	}
	return e
}
