package hyprland

import (
	"github.com/thiagokokada/barsync/compositor"
)

// State is the published Hyprland state. It implements
// [compositor.Compositor] through the embedded snapshot.
type State struct {
	compositor.Snapshot
	// Initialized is false until the first full refresh is reduced.
	Initialized bool
}

var _ compositor.Compositor = State{}

// Message is the input of [Reduce]: one of [RequestRefresh], [Refresh],
// [ActiveWindow] or [CloseWindow].
type Message interface {
	isMessage()
}

// RequestRefresh asks the provider to fetch a full snapshot. It does not
// change the state by itself.
type RequestRefresh struct{}

// Refresh replaces the whole entity graph.
type Refresh struct {
	Snapshot compositor.Snapshot
}

// ActiveWindow records the focused window of the active workspace.
type ActiveWindow struct {
	ID compositor.WindowID
}

// CloseWindow removes a window.
type CloseWindow struct {
	ID compositor.WindowID
}

func (RequestRefresh) isMessage() {}
func (Refresh) isMessage()        {}
func (ActiveWindow) isMessage()   {}
func (CloseWindow) isMessage()    {}

// Reduce applies msg to s. Live updates received before the first refresh
// are discarded.
func Reduce(s State, msg Message) State {
	switch msg := msg.(type) {
	case Refresh:
		return State{Snapshot: msg.Snapshot, Initialized: true}
	case ActiveWindow:
		if s.Initialized {
			s.Snapshot = s.Snapshot.WithActiveWindow(msg.ID)
		}
	case CloseWindow:
		if s.Initialized {
			s.Snapshot = s.Snapshot.WithoutWindow(msg.ID)
		}
	}
	return s
}
