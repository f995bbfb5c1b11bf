package compositor

import (
	"cmp"
	"maps"
	"slices"
)

// Snapshot is an immutable entity graph implementing [Compositor]. Backends
// build one per refresh and derive new snapshots for live updates with the
// With* methods, which never modify the receiver.
type Snapshot struct {
	monitors   map[MonitorConnector]Monitor
	workspaces map[WorkspaceID]Workspace
	windows    map[WindowID]Window
	active     MonitorConnector
}

var _ Compositor = Snapshot{}

// NewSnapshot builds a snapshot from already normalized entities. The maps
// are owned by the snapshot afterwards and must not be modified by the
// caller. The active monitor is the first one (by connector) flagged as
// active.
func NewSnapshot(
	monitors map[MonitorConnector]Monitor,
	workspaces map[WorkspaceID]Workspace,
	windows map[WindowID]Window,
) Snapshot {
	s := Snapshot{
		monitors:   monitors,
		workspaces: workspaces,
		windows:    windows,
	}
	for _, m := range s.Monitors() {
		if m.Active {
			s.active = m.Connector
			break
		}
	}
	return s
}

func sortedValues[K cmp.Ordered, V any](m map[K]V) []V {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	values := make([]V, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}

func (s Snapshot) Monitors() []Monitor {
	return sortedValues(s.monitors)
}

func (s Snapshot) ActiveMonitor() (Monitor, bool) {
	m, ok := s.monitors[s.active]
	return m, ok
}

func (s Snapshot) MonitorIsEmpty(m Monitor) bool {
	for _, ws := range s.WorkspacesInMonitor(m) {
		if !s.WorkspaceIsEmpty(ws) {
			return false
		}
	}
	return true
}

func (s Snapshot) Workspaces() []Workspace {
	return sortedValues(s.workspaces)
}

func (s Snapshot) Workspace(id WorkspaceID) (Workspace, bool) {
	ws, ok := s.workspaces[id]
	return ws, ok
}

func (s Snapshot) ActiveWorkspace(m Monitor) (Workspace, bool) {
	// Re-read the monitor, the caller may hold an old copy.
	if current, ok := s.monitors[m.Connector]; ok {
		m = current
	}
	ws, ok := s.workspaces[m.ActiveWorkspaceID]
	return ws, ok
}

func (s Snapshot) WorkspaceIsEmpty(ws Workspace) bool {
	for _, w := range s.windows {
		if w.WorkspaceID == ws.ID {
			return false
		}
	}
	return true
}

func (s Snapshot) WorkspacesInMonitor(m Monitor) []Workspace {
	var result []Workspace
	for _, ws := range s.Workspaces() {
		if ws.MonitorConnector == m.Connector {
			result = append(result, ws)
		}
	}
	return result
}

func (s Snapshot) Windows() []Window {
	return sortedValues(s.windows)
}

func (s Snapshot) Window(id WindowID) (Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}

func (s Snapshot) ActiveWindow(ws Workspace) (Window, bool) {
	if current, ok := s.workspaces[ws.ID]; ok {
		ws = current
	}
	w, ok := s.windows[ws.ActiveWindowID]
	return w, ok
}

func (s Snapshot) WindowsInWorkspace(ws Workspace) []Window {
	var result []Window
	for _, w := range s.Windows() {
		if w.WorkspaceID == ws.ID {
			result = append(result, w)
		}
	}
	return result
}

// WithActiveWindow returns a copy where the active workspace of the active
// monitor records id as its active window. Without an active workspace the
// snapshot is returned unchanged.
func (s Snapshot) WithActiveWindow(id WindowID) Snapshot {
	m, ok := s.ActiveMonitor()
	if !ok {
		return s
	}
	ws, ok := s.workspaces[m.ActiveWorkspaceID]
	if !ok {
		return s
	}
	ws.ActiveWindowID = id

	next := s
	next.workspaces = maps.Clone(s.workspaces)
	next.workspaces[ws.ID] = ws
	return next
}

// WithoutWindow returns a copy without the window id.
func (s Snapshot) WithoutWindow(id WindowID) Snapshot {
	if _, ok := s.windows[id]; !ok {
		return s
	}
	next := s
	next.windows = maps.Clone(s.windows)
	delete(next.windows, id)
	return next
}
