package cliapp_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"dporsched/internal/cliapp"
	"dporsched/internal/minimize"
	"dporsched/internal/obslog"
	"dporsched/internal/scheduler"
)

func testConfig() scheduler.Config {
	return scheduler.Config{MaxDepth: 1000, WildcardStrategy: cliapp.ResolveStrategy("SrcDstFIFOOnly")}
}

func TestRunSearch_FanOutRace_FindsViolationAndTerminates(t *testing.T) {
	scenario, ok := cliapp.Lookup("fan-out-race")
	require.True(t, ok)

	result, err := cliapp.RunSearch(context.Background(), obslog.Nop(), testConfig(), scenario)
	require.NoError(t, err)
	require.True(t, result.RunCounter > 0, "expected the reversed interleaving to force at least one restart")
	require.GreaterOrEqual(t, result.ViolationAt, 0, "expected at least one observed interleaving to reverse m1/m2")
}

func TestRunSearch_PingPong_NoRestarts(t *testing.T) {
	scenario, ok := cliapp.Lookup("ping-pong")
	require.True(t, ok)

	result, err := cliapp.RunSearch(context.Background(), obslog.Nop(), testConfig(), scenario)
	require.NoError(t, err)
	require.Equal(t, 0, result.RunCounter, "a single causal chain has nothing to backtrack into")
	require.Equal(t, -1, result.ViolationAt)
}

// TestMinimize_FanOutRace_ShrinksToTheRacingPair runs the search to find a
// violating trace, then minimizes it, asserting that the shrunk trace still
// reproduces the violation and is no larger than the original. The two id
// sequences are compared structurally via go-cmp rather than just lengths,
// so a minimizer that reorders or duplicates ids while "shrinking" would
// also be caught.
func TestMinimize_FanOutRace_ShrinksToTheRacingPair(t *testing.T) {
	scenario, ok := cliapp.Lookup("fan-out-race")
	require.True(t, ok)
	cfg := testConfig()

	result, err := cliapp.RunSearch(context.Background(), obslog.Nop(), cfg, scenario)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.ViolationAt, 0)

	shrunk, stats, err := cliapp.Minimize(context.Background(), obslog.Nop(), cfg, scenario, result.FinalTrace, minimize.None)
	require.NoError(t, err)
	require.LessOrEqual(t, len(shrunk), len(result.FinalTrace))
	require.True(t, scenario.Violates(shrunk), "minimized trace must still reproduce the violation")
	require.GreaterOrEqual(t, stats.Replays, 1)

	rerun, _, err := cliapp.Minimize(context.Background(), obslog.Nop(), cfg, scenario, shrunk, minimize.None)
	require.NoError(t, err)
	if diff := cmp.Diff(shrunk, rerun); diff != "" {
		t.Fatalf("minimizing an already-minimal trace changed it, want no-op: %s", diff)
	}
}
