// Package openrazer publishes the battery state of a Razer mouse, as
// reported by the OpenRazer daemon over D-Bus.
package openrazer

// State is the published mouse state.
type State struct {
	// Error is the last bus failure, empty when none happened.
	Error        string
	Detected     bool
	Charging     bool
	BatteryLevel float64
}

// Message is the input of [Reduce].
type Message interface {
	isMessage()
}

// MouseError records a bus failure.
type MouseError struct {
	Err string
}

// MouseDetected reports whether a mouse was found, without battery data.
type MouseDetected struct {
	Detected bool
}

// MouseBattery is the result of a successful poll.
type MouseBattery struct {
	Charging     bool
	BatteryLevel float64
}

// DeviceAdded and DeviceRemoved come from daemon signals. They leave the
// state as is and trigger an early update.
type (
	DeviceAdded   struct{}
	DeviceRemoved struct{}
)

func (MouseError) isMessage()    {}
func (MouseDetected) isMessage() {}
func (MouseBattery) isMessage()  {}
func (DeviceAdded) isMessage()   {}
func (DeviceRemoved) isMessage() {}

func Reduce(s State, msg Message) State {
	switch msg := msg.(type) {
	case MouseError:
		s.Error = msg.Err
	case MouseDetected:
		s.Detected = msg.Detected
		if !msg.Detected {
			s.Charging = false
		}
	case MouseBattery:
		s.Detected = true
		s.Charging = msg.Charging
		s.BatteryLevel = msg.BatteryLevel
	}
	return s
}
