package pulseaudio

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/thiagokokada/barsync"
	"github.com/thiagokokada/barsync/logging"
)

// Connector opens a new [Server] connection.
type Connector func() (Server, error)

// DialConnector returns a [Connector] using [Dial].
func DialConnector(server, clientName string) Connector {
	return func() (Server, error) {
		return Dial(server, clientName)
	}
}

// Provider keeps a [State] in sync with the default sink.
type Provider struct {
	store   *barsync.Store[State, Update]
	connect Connector
	log     *logrus.Entry
}

func NewProvider(connect Connector) *Provider {
	return &Provider{
		store:   barsync.New(State{}, Reduce),
		connect: connect,
		log:     logging.NewLogger("pulseaudio"),
	}
}

func (p *Provider) Store() *barsync.Store[State, Update] {
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

// Run connects to the server, publishes the default sink state and then
// republishes it on every sink change until ctx is done. Connection
// failures end Run, there is no retry.
func (p *Provider) Run(ctx context.Context) error {
	server, err := p.connect()
	if err != nil {
		p.log.WithError(err).Error("Audio server connection failed")
		return err
	}
	defer server.Close()
	p.log.Debug("Connected to audio server")

	name, err := server.DefaultSinkName()
	if err != nil {
		p.log.WithError(err).Error("Failed to get server info")
		return err
	}
	if name == "" {
		p.log.Error("Failed to find default sink")
		return nil
	}
	p.log.Debugf("Got default sink name: %s", name)

	if err := p.update(server, name); err != nil {
		p.log.WithError(err).Error("Failed to get initial sink state")
		return err
	}

	events, err := server.SubscribeSinks()
	if err != nil {
		p.log.WithError(err).Error("Failed to subscribe to sink events")
		return err
	}
	p.log.Debug("Subscribed to sink events")

	// All emits happen from this goroutine, events from the server
	// connection are only forwarded through the channel
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				p.log.WithError(ErrConnectionClosed).Error("Sink event subscription closed")
				return ErrConnectionClosed
			}
			if err := p.update(server, name); err != nil {
				p.log.WithError(err).Warn("Failed to refresh sink state")
			}
		}
	}
}

func (p *Provider) update(server Server, name string) error {
	sink, err := server.SinkVolume(name)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	p.log.Tracef("Volume: %d%%, muted: %t", Percent(sink.Volume), sink.Muted)
	p.store.Emit(Update{Volume: sink.Volume, Muted: sink.Muted})
	return nil
}
