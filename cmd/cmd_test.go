package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartroom/internal/config"
	"github.com/abhisek/smartroom/internal/room"
)

// resetFlags puts every flag back to its default. Cobra keeps flag values
// between Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringSlice" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	t.Setenv("SMARTROOM_DB", "")
	t.Setenv("SMARTROOM_SAVE_BACKEND", "sqlite")
	return filepath.Join(t.TempDir(), "smartroom.db")
}

func TestResolveDBPath(t *testing.T) {
	dir := t.TempDir()
	newCmd := func() *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("db", "", "")
		return c
	}

	c := newCmd()
	require.NoError(t, c.Flags().Set("db", filepath.Join(dir, "flag", "a.db")))
	p, err := resolveDBPath(c, config.Config{DBPath: filepath.Join(dir, "cfg.db")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flag", "a.db"), p)
	assert.DirExists(t, filepath.Join(dir, "flag"))

	p, err = resolveDBPath(newCmd(), config.Config{DBPath: filepath.Join(dir, "cfg", "b.db")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cfg", "b.db"), p)

	t.Setenv("SMARTROOM_DB", filepath.Join(dir, "env", "c.db"))
	p, err = resolveDBPath(newCmd(), config.Config{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "env", "c.db"), p)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "smartroom (devel)\n", out)
}

func TestBadBackendFlag(t *testing.T) {
	db := tempDB(t)
	_, err := run(t, "saves", "list", "--db", db, "--backend", "floppy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid save backend")
}

func TestSimulateAndListSaves(t *testing.T) {
	db := tempDB(t)

	out, err := run(t, "simulate", "--db", db, "--ticks", "5", "--devices", "3", "--seed", "3", "--save", "nightly")
	require.NoError(t, err)
	assert.Contains(t, out, "mode    MAIN_MENU -> FREE_PLAY")
	assert.Contains(t, out, "placed  ")
	assert.Contains(t, out, "done    5 ticks")
	assert.Contains(t, out, "saved   ")

	out, err = run(t, "saves", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "nightly")
	assert.Contains(t, out, "1 saves")
}

func TestSimulateUnknownScenario(t *testing.T) {
	db := tempDB(t)
	_, err := run(t, "simulate", "--db", db, "--ticks", "1", "--scenario", "moon-base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moon-base")
}

func TestSavesDeleteAndPrune(t *testing.T) {
	db := tempDB(t)
	for _, label := range []string{"one", "two", "three"} {
		_, err := run(t, "simulate", "--db", db, "--ticks", "0", "--devices", "1", "--save", label)
		require.NoError(t, err)
	}

	_, err := run(t, "saves", "delete", "--db", db, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no save with id missing")

	out, err := run(t, "saves", "prune", "--db", db, "--keep", "1")
	require.NoError(t, err)
	assert.Equal(t, "pruned 2 saves\n", out)

	out, err = run(t, "saves", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "three")
	assert.NotContains(t, out, "one")
}

func TestResetNeedsConfirmation(t *testing.T) {
	db := tempDB(t)
	_, err := run(t, "simulate", "--db", db, "--ticks", "0", "--devices", "0", "--save", "keepme")
	require.NoError(t, err)

	_, err = run(t, "reset", "--db", db)
	require.Error(t, err)

	out, err := run(t, "reset", "--db", db, "--yes")
	require.NoError(t, err)
	assert.Equal(t, "all saves deleted\n", out)

	out, err = run(t, "saves", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "0 saves")
}

func TestHealth(t *testing.T) {
	db := tempDB(t)
	out, err := run(t, "health", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "unhealthy      -")
	assert.Contains(t, out, "mode           MAIN_MENU")
	assert.Contains(t, out, "safe mode      off")
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("SMARTROOM_REDIS_ADDR", mr.Addr())
	t.Setenv("SMARTROOM_SAVE_BACKEND", "redis")

	_, err := run(t, "simulate", "--ticks", "1", "--devices", "1", "--save", "cloud")
	require.NoError(t, err)

	out, err := run(t, "saves", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cloud")

	out, err = run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "1 saves deleted\n", out)
}

func TestLoadSpecs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamp.json")
	raw := `{"name":"Glow","kind":"lamp","personality":{"helpfulness":0.9,"temper":0.1}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	specs, err := loadSpecs(simOptions{specs: []string{path}, devices: 9})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "Glow", specs[0].Name)
	assert.Equal(t, room.KindLamp, specs[0].Kind)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":"","kind":"toaster"}`), 0o644))
	_, err = loadSpecs(simOptions{specs: []string{bad}})
	require.Error(t, err)

	specs, err = loadSpecs(simOptions{devices: len(generatedNames) + 1})
	require.NoError(t, err)
	assert.Equal(t, generatedNames[0]+" 2", specs[len(specs)-1].Name)
	for _, s := range specs {
		assert.NoError(t, s.Validate())
	}
}
