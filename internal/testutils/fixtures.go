package testutils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/hall-runner/internal/pkg/idgen"
	runhistory "github.com/KirkDiggler/hall-runner/internal/repositories/run_history"
)

// FixedRoller rolls the same value on every die, capped at the die size
type FixedRoller struct {
	Value int
}

// WinRoller always rolls a natural 20, so simulated fights are won
var WinRoller = FixedRoller{Value: 20}

// LoseRoller always rolls a 1, so simulated fights are lost
var LoseRoller = FixedRoller{Value: 1}

// Roll implements dice.Roller
func (r FixedRoller) Roll(size int) (int, error) {
	if r.Value > size {
		return size, nil
	}
	return r.Value, nil
}

// RollN implements dice.Roller
func (r FixedRoller) RollN(count, size int) ([]int, error) {
	out := make([]int, count)
	for i := range out {
		out[i], _ = r.Roll(size)
	}
	return out, nil
}

// OpenTestHistory opens a run history journal in a temp dir.
// The store is closed when the test ends.
func OpenTestHistory(t *testing.T) *runhistory.Store {
	t.Helper()

	store, err := runhistory.Open(&runhistory.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		IDGenerator: idgen.NewSequential("run"),
	})
	require.NoError(t, err, "failed to open run history")
	t.Cleanup(func() { _ = store.Close() })

	return store
}
