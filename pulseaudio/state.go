// Package pulseaudio publishes the volume and mute state of the default
// audio sink.
package pulseaudio

import "math"

// MaxVolume is the raw volume of a channel at 100%.
const MaxVolume = 65535

type State struct {
	// Volume of the first channel of the default sink, 0-100.
	Volume int
	Muted  bool
}

// Update carries the raw values read from the server.
type Update struct {
	Volume uint32
	Muted  bool
}

// Percent converts a raw channel volume to a rounded percentage. Volumes
// above 100% (software amplification) are not clamped.
func Percent(raw uint32) int {
	return int(math.Round(float64(raw) / MaxVolume * 100))
}

// Reduce replaces the state with the values of msg.
func Reduce(_ State, msg Update) State {
	return State{Volume: Percent(msg.Volume), Muted: msg.Muted}
}
