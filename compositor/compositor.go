// Package compositor describes the normalized view of a Wayland compositor:
// monitors, the workspaces shown on them and the windows inside each
// workspace.
//
// Consumers should depend on the [Compositor] interface only, so that a
// different backend can replace the Hyprland one without changes on their
// side.
package compositor

// MonitorConnector is the output name of a monitor, e.g. "HDMI-A-1".
type MonitorConnector = string

// WorkspaceID is a 0-based workspace identifier.
type WorkspaceID = int

// WindowID is the numeric value of a window address.
type WindowID = uint64

type Monitor struct {
	Connector         MonitorConnector
	Active            bool
	ActiveWorkspaceID WorkspaceID
}

type Workspace struct {
	ID               WorkspaceID
	Name             string
	MonitorConnector MonitorConnector
	ActiveWindowID   WindowID
}

type Window struct {
	ID          WindowID
	Class       string
	Title       string
	WorkspaceID WorkspaceID
}

// Compositor is the read-only capability exposed to consumers. Methods
// returning lists return them in ascending key order.
type Compositor interface {
	Monitors() []Monitor
	// ActiveMonitor returns false before the first refresh.
	ActiveMonitor() (Monitor, bool)
	// MonitorIsEmpty reports whether no window lives in any workspace of
	// the monitor.
	MonitorIsEmpty(m Monitor) bool

	Workspaces() []Workspace
	ActiveWorkspace(m Monitor) (Workspace, bool)
	// WorkspaceIsEmpty reports whether no window references the workspace.
	WorkspaceIsEmpty(ws Workspace) bool
	WorkspacesInMonitor(m Monitor) []Workspace

	Windows() []Window
	ActiveWindow(ws Workspace) (Window, bool)
	WindowsInWorkspace(ws Workspace) []Window
}
