package openrazer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/thiagokokada/barsync"
	"github.com/thiagokokada/barsync/jitter"
	"github.com/thiagokokada/barsync/logging"
)

const mouseDeviceType = "mouse"

// Provider polls the OpenRazer daemon for the battery of the first mouse.
type Provider struct {
	store  *barsync.Store[State, Message]
	source BusSource
	rate   func() jitter.Policy
	log    *logrus.Entry

	// Set once Run has a bus, used by early updates.
	mu  sync.Mutex
	bus Bus
	ctx context.Context
}

// NewProvider creates a provider. rate is called before every sleep, so it
// may return a different policy after a configuration reload.
func NewProvider(source BusSource, rate func() jitter.Policy) *Provider {
	p := &Provider{
		source: source,
		rate:   rate,
		log:    logging.NewLogger("openrazer"),
	}
	p.store = barsync.New(State{}, Reduce, barsync.WithHook[State, Message](p.onMessage))
	return p
}

func (p *Provider) Store() *barsync.Store[State, Message] {
	return p.store
}

// Subscribe returns every state published after this call.
func (p *Provider) Subscribe(ctx context.Context) <-chan State {
	return p.store.Subscribe(ctx)
}

func (p *Provider) State() State {
	return p.store.State()
}

func (p *Provider) Close() {
	p.store.Close()
}

// Run waits for the bus, subscribes to hotplug signals and polls until a
// bus call fails or ctx is done. A failed poll is published as a
// [MouseError] and ends Run.
func (p *Provider) Run(ctx context.Context) error {
	p.log.Trace("Waiting for bus connection")
	bus, err := p.source(ctx)
	if err != nil {
		p.log.WithError(err).Error("Bus connection failed")
		return err
	}
	p.mu.Lock()
	p.bus, p.ctx = bus, ctx
	p.mu.Unlock()

	p.log.Trace("Subscribing to device signals")
	signals, err := bus.SubscribeDevices(ctx)
	if err != nil {
		p.log.WithError(err).Error("Bus connection failed")
		return err
	}
	go func() {
		for msg := range signals {
			p.store.Emit(msg)
		}
	}()

	p.log.Trace("Beginning device battery polling loop")
	for {
		if err := p.Update(ctx, bus); err != nil {
			p.store.Emit(MouseError{Err: err.Error()})
			p.log.WithError(err).Error("Failed to update mouse battery level")
			return err
		}

		timer := time.NewTimer(p.rate().Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Update looks for a mouse and publishes its battery state. Devices whose
// type cannot be read are skipped.
func (p *Provider) Update(ctx context.Context, bus Bus) error {
	var devices []string
	if err := call(ctx, bus, RootPath, MethodGetDevices, &devices); err != nil {
		return fmt.Errorf("failed to get razer devices: %w", err)
	}
	if len(devices) == 0 {
		p.log.Trace("No razer devices found")
		p.store.Emit(MouseDetected{Detected: false})
		return nil
	}

	mouse, ok := p.findMouse(ctx, bus, devices)
	if !ok {
		p.log.Trace("No mouse found")
		p.store.Emit(MouseDetected{Detected: false})
		return nil
	}

	var charging bool
	if err := call(ctx, bus, DevicePath(mouse), MethodIsCharging, &charging); err != nil {
		return fmt.Errorf("failed to get mouse charging status: %w", err)
	}
	var level float64
	if err := call(ctx, bus, DevicePath(mouse), MethodGetBattery, &level); err != nil {
		return fmt.Errorf("failed to get mouse battery level: %w", err)
	}

	p.store.Emit(MouseBattery{Charging: charging, BatteryLevel: level})
	return nil
}

func (p *Provider) findMouse(ctx context.Context, bus Bus, devices []string) (string, bool) {
	for _, serial := range devices {
		var deviceType string
		if err := call(ctx, bus, DevicePath(serial), MethodGetDeviceType, &deviceType); err != nil {
			p.log.WithError(err).WithField("serial", serial).Trace("Skipping device")
			continue
		}
		if deviceType == mouseDeviceType {
			return serial, true
		}
	}
	return "", false
}

// onMessage starts an early update on hotplug. The update runs on its own
// goroutine, never on the store one.
func (p *Provider) onMessage(msg Message) {
	switch msg.(type) {
	case DeviceAdded, DeviceRemoved:
	default:
		return
	}

	p.mu.Lock()
	bus, ctx := p.bus, p.ctx
	p.mu.Unlock()
	if bus == nil {
		return
	}

	p.log.WithField("reason", fmt.Sprintf("%T", msg)).Debug("Updating battery level early")
	go func() {
		if err := p.Update(ctx, bus); err != nil {
			p.store.Emit(MouseError{Err: err.Error()})
		}
	}()
}

func call(ctx context.Context, bus Bus, path dbus.ObjectPath, method string, out ...any) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	return bus.Call(ctx, path, method, out...)
}
