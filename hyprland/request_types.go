package hyprland

import (
	"net"
)

// SupportedVersion is the Hyprland release the raw types are checked against.
const SupportedVersion = "0.44.1"

// Represents a raw request that is passed for Hyprland's socket.
type RawRequest []byte

// Represents a raw response returned from the Hyprland's socket.
type RawResponse []byte

// RequestClient talks to the Hyprland request socket.
type RequestClient struct {
	conn *net.UnixAddr
}

// Unmarshal structs for requests.
// Only the fields needed to build the normalized model, plus a few useful
// for logging, are decoded.
// Try to keep struct fields in the same order as the output for `hyprctl -j`
// for sanity.

type Client struct {
	Address        string        `json:"address"`
	Mapped         bool          `json:"mapped"`
	Hidden         bool          `json:"hidden"`
	Workspace      WorkspaceType `json:"workspace"`
	Floating       bool          `json:"floating"`
	Monitor        int           `json:"monitor"`
	Class          string        `json:"class"`
	Title          string        `json:"title"`
	InitialClass   string        `json:"initialClass"`
	InitialTitle   string        `json:"initialTitle"`
	Pid            int           `json:"pid"`
	Xwayland       bool          `json:"xwayland"`
	Pinned         bool          `json:"pinned"`
	FocusHistoryId int           `json:"focusHistoryID"`
}

type Monitor struct {
	Id               int           `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	ActiveWorkspace  WorkspaceType `json:"activeWorkspace"`
	SpecialWorkspace WorkspaceType `json:"specialWorkspace"`
	Focused          bool          `json:"focused"`
}

type Workspace struct {
	WorkspaceType
	Monitor         string `json:"monitor"`
	MonitorID       int    `json:"monitorID"`
	Windows         int    `json:"windows"`
	HasFullScreen   bool   `json:"hasfullscreen"`
	LastWindow      string `json:"lastwindow"`
	LastWindowTitle string `json:"lastwindowtitle"`
}

// Hyprland uses negative ids (e.g. -99) for special workspaces.
type WorkspaceType struct {
	Id   int    `json:"id"`
	Name string `json:"name"`
}
