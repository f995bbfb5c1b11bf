package hyprland

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureSnapshotState(t *testing.T) State {
	t.Helper()
	snapshot, err := Normalize(decodeFixtures(t))
	require.NoError(t, err)
	return Reduce(State{}, Refresh{Snapshot: snapshot})
}

func TestReduceRefreshIdempotent(t *testing.T) {
	snapshot, err := Normalize(decodeFixtures(t))
	require.NoError(t, err)

	once := Reduce(State{}, Refresh{Snapshot: snapshot})
	twice := Reduce(once, Refresh{Snapshot: snapshot})

	assert.True(t, once.Initialized)
	assert.Equal(t, once, twice)
}

func TestReduceBeforeInitialized(t *testing.T) {
	s := Reduce(State{}, ActiveWindow{ID: 0x55d0c1a2b3d0})
	s = Reduce(s, CloseWindow{ID: 0x55d0c1a2b3c0})
	s = Reduce(s, RequestRefresh{})

	assert.Equal(t, State{}, s)
	_, ok := s.ActiveMonitor()
	assert.False(t, ok)
}

func TestReduceActiveWindow(t *testing.T) {
	s := fixtureSnapshotState(t)
	next := Reduce(s, ActiveWindow{ID: 0x55d0c1a2b3d0})

	m, _ := next.ActiveMonitor()
	ws, ok := next.ActiveWorkspace(m)
	require.True(t, ok)
	assert.Equal(t, uint64(0x55d0c1a2b3d0), ws.ActiveWindowID)

	// Previous state is untouched
	m, _ = s.ActiveMonitor()
	ws, _ = s.ActiveWorkspace(m)
	assert.Equal(t, uint64(0x55d0c1a2b3c0), ws.ActiveWindowID)
}

func TestReduceCloseWindow(t *testing.T) {
	s := fixtureSnapshotState(t)
	next := Reduce(s, CloseWindow{ID: 0x55d0c1a2b3c0})

	_, ok := next.Window(0x55d0c1a2b3c0)
	assert.False(t, ok)
	assert.Len(t, next.Windows(), 2)
	_, ok = s.Window(0x55d0c1a2b3c0)
	assert.True(t, ok)

	// Unknown windows are a no-op
	assert.Equal(t, next, Reduce(next, CloseWindow{ID: 0xdead}))
}

func TestReduceRequestRefresh(t *testing.T) {
	s := fixtureSnapshotState(t)
	assert.Equal(t, s, Reduce(s, RequestRefresh{}))
}
