package hyprland

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/thiagokokada/barsync/compositor"
)

var (
	ErrNoActiveMonitor      = errors.New("no focused monitor")
	ErrUnresolvedWorkspace  = errors.New("active workspace not found")
	ErrInvalidWindowAddress = errors.New("invalid window address")
)

// NoWorkspace is used for references to workspaces that cannot be
// represented (special or invalid ids).
const NoWorkspace compositor.WorkspaceID = -1

// NormalizeWorkspaceID converts a 1-based Hyprland workspace id into a
// 0-based one. Special and named workspaces (negative ids) and the invalid
// id 0 return false.
func NormalizeWorkspaceID(id int) (compositor.WorkspaceID, bool) {
	if id < 1 {
		return NoWorkspace, false
	}
	return id - 1, true
}

// ParseWindowID decodes a bare hex window address, as sent in events,
// e.g. "55d0c1a2b3c0".
func ParseWindowID(hex string) (compositor.WindowID, error) {
	id, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidWindowAddress, hex, err)
	}
	return id, nil
}

// ParsePrefixedWindowID decodes a window address with a 2 character prefix,
// as returned by requests, e.g. "0x55d0c1a2b3c0".
func ParsePrefixedWindowID(hex string) (compositor.WindowID, error) {
	if len(hex) < 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindowAddress, hex)
	}
	return ParseWindowID(hex[2:])
}

// NormalizeMonitors keys monitors by connector. Exactly one monitor ends up
// active: the first focused one by connector order.
func NormalizeMonitors(raw []Monitor) (map[compositor.MonitorConnector]compositor.Monitor, error) {
	monitors := make(map[compositor.MonitorConnector]compositor.Monitor, len(raw))
	for _, m := range raw {
		wsID, _ := NormalizeWorkspaceID(m.ActiveWorkspace.Id)
		monitors[m.Name] = compositor.Monitor{
			Connector:         m.Name,
			Active:            m.Focused,
			ActiveWorkspaceID: wsID,
		}
	}

	var active []compositor.MonitorConnector
	for connector, m := range monitors {
		if m.Active {
			active = append(active, connector)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveMonitor
	}
	slices.Sort(active)
	for _, connector := range active[1:] {
		m := monitors[connector]
		m.Active = false
		monitors[connector] = m
	}

	return monitors, nil
}

// NormalizeWorkspaces keys workspaces by their 0-based id, dropping special
// workspaces and workspaces on unknown monitors.
func NormalizeWorkspaces(
	raw []Workspace,
	monitors map[compositor.MonitorConnector]compositor.Monitor,
) (map[compositor.WorkspaceID]compositor.Workspace, error) {
	workspaces := make(map[compositor.WorkspaceID]compositor.Workspace, len(raw))
	for _, ws := range raw {
		id, ok := NormalizeWorkspaceID(ws.Id)
		if !ok {
			continue
		}
		if _, ok := monitors[ws.Monitor]; !ok {
			continue
		}
		windowID, err := ParsePrefixedWindowID(ws.LastWindow)
		if err != nil {
			return nil, fmt.Errorf("workspace %q: %w", ws.Name, err)
		}
		workspaces[id] = compositor.Workspace{
			ID:               id,
			Name:             ws.Name,
			MonitorConnector: ws.Monitor,
			ActiveWindowID:   windowID,
		}
	}
	return workspaces, nil
}

// NormalizeWindows keys windows by their decoded address, dropping windows
// that are not in a known workspace (e.g. the special workspace).
func NormalizeWindows(
	raw []Client,
	workspaces map[compositor.WorkspaceID]compositor.Workspace,
) (map[compositor.WindowID]compositor.Window, error) {
	windows := make(map[compositor.WindowID]compositor.Window, len(raw))
	for _, c := range raw {
		wsID, ok := NormalizeWorkspaceID(c.Workspace.Id)
		if !ok {
			continue
		}
		if _, ok := workspaces[wsID]; !ok {
			continue
		}
		id, err := ParsePrefixedWindowID(c.Address)
		if err != nil {
			return nil, fmt.Errorf("client %q: %w", c.Class, err)
		}
		windows[id] = compositor.Window{
			ID:          id,
			Class:       c.Class,
			Title:       c.Title,
			WorkspaceID: wsID,
		}
	}
	return windows, nil
}

// Normalize converts the three raw lists into a consistent snapshot.
//
// Only numbered workspaces are kept. Named workspaces get negative ids from
// Hyprland (-1337 and below) and are dropped like special ones, so while the
// focused monitor shows a named workspace Normalize returns
// [ErrUnresolvedWorkspace] and the previous snapshot stays published.
func Normalize(monitors []Monitor, workspaces []Workspace, clients []Client) (compositor.Snapshot, error) {
	ms, err := NormalizeMonitors(monitors)
	if err != nil {
		return compositor.Snapshot{}, err
	}
	wss, err := NormalizeWorkspaces(workspaces, ms)
	if err != nil {
		return compositor.Snapshot{}, err
	}
	ws, err := NormalizeWindows(clients, wss)
	if err != nil {
		return compositor.Snapshot{}, err
	}

	snapshot := compositor.NewSnapshot(ms, wss, ws)
	active, _ := snapshot.ActiveMonitor()
	if _, ok := snapshot.ActiveWorkspace(active); !ok {
		return compositor.Snapshot{}, fmt.Errorf(
			"%w: monitor %s, workspace %d",
			ErrUnresolvedWorkspace,
			active.Connector,
			active.ActiveWorkspaceID,
		)
	}
	return snapshot, nil
}
