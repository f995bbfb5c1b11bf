package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thiagokokada/barsync/compositor"
	"github.com/thiagokokada/barsync/openrazer"
	"github.com/thiagokokada/barsync/pulseaudio"
)

var (
	activeColor = color.New(color.FgHiMagenta, color.Bold)
	emptyColor  = color.New(color.FgHiBlack)
	labelColor  = color.New(color.FgCyan)
	errorColor  = color.New(color.FgRed)
	okColor     = color.New(color.FgHiGreen)
	warnColor   = color.New(color.FgYellow)
)

// FormatCompositor renders the workspaces of the active monitor and the
// focused window, e.g. "DP-1 1 [2] 3 | kitty: nvim".
func FormatCompositor(c compositor.Compositor) string {
	m, ok := c.ActiveMonitor()
	if !ok {
		return labelColor.Sprint("compositor") + " waiting for first refresh"
	}

	var b strings.Builder
	b.WriteString(labelColor.Sprint(m.Connector))

	active, hasActive := c.ActiveWorkspace(m)
	for _, ws := range c.WorkspacesInMonitor(m) {
		b.WriteByte(' ')
		switch {
		case hasActive && ws.ID == active.ID:
			b.WriteString(activeColor.Sprintf("[%s]", ws.Name))
		case c.WorkspaceIsEmpty(ws):
			b.WriteString(emptyColor.Sprint(ws.Name))
		default:
			b.WriteString(ws.Name)
		}
	}

	if hasActive {
		if win, ok := c.ActiveWindow(active); ok {
			fmt.Fprintf(&b, " | %s: %s", win.Class, win.Title)
		}
	}
	return b.String()
}

func FormatAudio(s pulseaudio.State) string {
	label := labelColor.Sprint("volume")
	if s.Muted {
		return fmt.Sprintf("%s %s", label, warnColor.Sprintf("%d%% (muted)", s.Volume))
	}
	return fmt.Sprintf("%s %d%%", label, s.Volume)
}

func FormatDevice(s openrazer.State) string {
	label := labelColor.Sprint("mouse")
	var status string
	switch {
	case !s.Detected:
		status = emptyColor.Sprint("not detected")
	case s.Charging:
		status = okColor.Sprintf("%.0f%% (charging)", s.BatteryLevel)
	case s.BatteryLevel <= 20:
		status = warnColor.Sprintf("%.0f%%", s.BatteryLevel)
	default:
		status = fmt.Sprintf("%.0f%%", s.BatteryLevel)
	}
	if s.Error != "" {
		status += " " + errorColor.Sprintf("(error: %s)", s.Error)
	}
	return fmt.Sprintf("%s %s", label, status)
}
