package cli

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/thiagokokada/barsync/compositor"
	"github.com/thiagokokada/barsync/openrazer"
	"github.com/thiagokokada/barsync/pulseaudio"
)

func init() {
	color.NoColor = true
}

func TestFormatCompositor(t *testing.T) {
	snapshot := compositor.NewSnapshot(
		map[compositor.MonitorConnector]compositor.Monitor{
			"DP-1":     {Connector: "DP-1", Active: true, ActiveWorkspaceID: 1},
			"HDMI-A-1": {Connector: "HDMI-A-1", ActiveWorkspaceID: 2},
		},
		map[compositor.WorkspaceID]compositor.Workspace{
			0: {ID: 0, Name: "1", MonitorConnector: "DP-1"},
			1: {ID: 1, Name: "2", MonitorConnector: "DP-1", ActiveWindowID: 0xa},
			2: {ID: 2, Name: "3", MonitorConnector: "HDMI-A-1"},
		},
		map[compositor.WindowID]compositor.Window{
			0xa: {ID: 0xa, Class: "kitty", Title: "nvim", WorkspaceID: 1},
		},
	)
	assert.Equal(t, "DP-1 1 [2] | kitty: nvim", FormatCompositor(snapshot))
	assert.Equal(t, "compositor waiting for first refresh", FormatCompositor(compositor.Snapshot{}))
}

func TestFormatAudio(t *testing.T) {
	assert.Equal(t, "volume 50%", FormatAudio(pulseaudio.State{Volume: 50}))
	assert.Equal(t, "volume 0% (muted)", FormatAudio(pulseaudio.State{Muted: true}))
}

func TestFormatDevice(t *testing.T) {
	tests := []struct {
		state openrazer.State
		want  string
	}{
		{state: openrazer.State{}, want: "mouse not detected"},
		{state: openrazer.State{Detected: true, Charging: true, BatteryLevel: 42}, want: "mouse 42% (charging)"},
		{state: openrazer.State{Detected: true, BatteryLevel: 87.6}, want: "mouse 88%"},
		{state: openrazer.State{Detected: true, BatteryLevel: 10, Error: "timeout"}, want: "mouse 10% (error: timeout)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDevice(tt.state))
		})
	}
}
