package hyprland

import (
	"bufio"
	"errors"
	"net"

	"github.com/thiagokokada/barsync/compositor"
)

// ErrMalformedEvent is returned for event lines that are not in the
// "key>>value" format or whose value cannot be decoded.
var ErrMalformedEvent = errors.New("malformed hyprland socket message")

type EventType string

const (
	EventWorkspace      EventType = "workspace"
	EventFocusedMonitor EventType = "focusedmon"
	EventActiveWindow   EventType = "activewindow"
	EventActiveWindowV2 EventType = "activewindowv2"
	EventOpenWindow     EventType = "openwindow"
	EventCloseWindow    EventType = "closewindow"
	EventMoveWindow     EventType = "movewindow"
)

// Event is one line received from the event socket.
type Event struct {
	Type EventType
	Data string
}

// EventClient reads events from the Hyprland event socket.
type EventClient struct {
	conn net.Conn
	r    *bufio.Reader
}

type WorkspaceName string

type OpenWindow struct {
	Address       compositor.WindowID
	WorkspaceName WorkspaceName
	Class         string
	Title         string
}

type MoveWindow struct {
	Address       compositor.WindowID
	WorkspaceName WorkspaceName
}

// EventHandler receives the decoded events. Embed [DefaultEventHandler] to
// implement only the methods you care about.
type EventHandler interface {
	// e.g. "1" (workspace name)
	Workspace(WorkspaceName)
	// e.g. 80864f60,1,Alacritty,Alacritty
	OpenWindow(OpenWindow)
	// e.g. 80864f60,1
	MoveWindow(MoveWindow)
	// e.g. 80864f60 (bare hex address of the focused window)
	ActiveWindowV2(compositor.WindowID)
	// e.g. 80864f60
	CloseWindow(compositor.WindowID)
	// Any other event
	Unhandled(Event)
}

// DefaultEventHandler is an implementation of [EventHandler] interface with
// all handlers doing nothing.
type DefaultEventHandler struct{}

func (e *DefaultEventHandler) Workspace(WorkspaceName)            {}
func (e *DefaultEventHandler) OpenWindow(OpenWindow)              {}
func (e *DefaultEventHandler) MoveWindow(MoveWindow)              {}
func (e *DefaultEventHandler) ActiveWindowV2(compositor.WindowID) {}
func (e *DefaultEventHandler) CloseWindow(compositor.WindowID)    {}
func (e *DefaultEventHandler) Unhandled(Event)                    {}
