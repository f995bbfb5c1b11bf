package openrazer

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/thiagokokada/barsync/busconn"
)

const (
	BusName  = "org.razer"
	RootPath = dbus.ObjectPath("/org/razer")

	DevicesInterface = "razer.devices"
	MiscInterface    = "razer.device.misc"
	PowerInterface   = "razer.device.power"

	MethodGetDevices    = DevicesInterface + ".getDevices"
	MethodGetDeviceType = MiscInterface + ".getDeviceType"
	MethodIsCharging    = PowerInterface + ".isCharging"
	MethodGetBattery    = PowerInterface + ".getBattery"

	SignalDeviceAdded   = DevicesInterface + ".device_added"
	SignalDeviceRemoved = DevicesInterface + ".device_removed"

	// CallTimeout bounds every method call.
	CallTimeout = 5 * time.Second
)

// DevicePath returns the object path of the device with serial.
func DevicePath(serial string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/razer/device/" + serial)
}

// Bus is the subset of a D-Bus connection used by the poller. [Conn] is
// the default implementation.
type Bus interface {
	// Call invokes method on the daemon object at path and stores the
	// reply body in out.
	Call(ctx context.Context, path dbus.ObjectPath, method string, out ...any) error
	// SubscribeDevices delivers a [DeviceAdded] or [DeviceRemoved] for
	// every hotplug signal until ctx is done.
	SubscribeDevices(ctx context.Context) (<-chan Message, error)
}

// BusSource waits for the shared bus connection.
type BusSource func(ctx context.Context) (Bus, error)

// FromHandle returns a [BusSource] waiting up to [busconn.DefaultTimeout]
// for h to be set.
func FromHandle(h *busconn.Handle[*dbus.Conn]) BusSource {
	return func(ctx context.Context) (Bus, error) {
		conn, err := h.Wait(ctx, busconn.DefaultTimeout)
		if err != nil {
			return nil, err
		}
		return NewConn(conn), nil
	}
}

// Conn implements [Bus] on a godbus connection.
type Conn struct {
	conn *dbus.Conn
}

var _ Bus = (*Conn)(nil)

func NewConn(conn *dbus.Conn) *Conn {
	return &Conn{conn: conn}
}

func (c *Conn) Call(ctx context.Context, path dbus.ObjectPath, method string, out ...any) error {
	call := c.conn.Object(BusName, path).CallWithContext(ctx, method, 0)
	if call.Err != nil {
		return fmt.Errorf("%s on %s: %w", method, path, call.Err)
	}
	if err := call.Store(out...); err != nil {
		return fmt.Errorf("%s on %s: %w", method, path, err)
	}
	return nil
}

func (c *Conn) SubscribeDevices(ctx context.Context) (<-chan Message, error) {
	err := c.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchObjectPath(RootPath),
		dbus.WithMatchInterface(DevicesInterface),
	)
	if err != nil {
		return nil, fmt.Errorf("error while subscribing to device signals: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	c.conn.Signal(signals)

	out := make(chan Message)
	go func() {
		defer close(out)
		defer c.conn.RemoveSignal(signals)

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				msg, ok := signalMessage(sig)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func signalMessage(sig *dbus.Signal) (Message, bool) {
	if sig.Path != RootPath {
		return nil, false
	}
	switch sig.Name {
	case SignalDeviceAdded:
		return DeviceAdded{}, true
	case SignalDeviceRemoved:
		return DeviceRemoved{}, true
	default:
		return nil, false
	}
}
