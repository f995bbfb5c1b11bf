package pulseaudio

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/barsync/logging"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func init() {
	logging.SetOutput(io.Discard)
}

type fakeServer struct {
	mu       sync.Mutex
	sinks    map[string]Sink
	def      string
	infoErr  error
	events   chan struct{}
	queried  []string
	closed   bool
	subErr   error
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		sinks:  map[string]Sink{"alsa_output.pci": {Volume: 32768, Muted: false}},
		def:    "alsa_output.pci",
		events: make(chan struct{}),
	}
}

func (f *fakeServer) DefaultSinkName() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.def, f.infoErr
}

func (f *fakeServer) SinkVolume(name string) (Sink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, name)
	sink, ok := f.sinks[name]
	if !ok {
		return Sink{}, errors.New("no such entity")
	}
	return sink, nil
}

func (f *fakeServer) SubscribeSinks() (<-chan struct{}, error) {
	return f.events, f.subErr
}

func (f *fakeServer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeServer) SetSink(name string, sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks[name] = sink
}

func (f *fakeServer) Queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queried...)
}

func connectTo(s Server) Connector {
	return func() (Server, error) { return s, nil }
}

func TestPercent(t *testing.T) {
	tests := []struct {
		raw  uint32
		want int
	}{
		{raw: 0, want: 0},
		{raw: 65535, want: 100},
		{raw: 32768, want: 50},
		{raw: 655, want: 1},
		{raw: 327, want: 0},
		{raw: 98304, want: 150},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.raw), "raw %d", tt.raw)
	}
}

func TestReduce(t *testing.T) {
	s := Reduce(State{Volume: 80, Muted: true}, Update{Volume: 65535, Muted: false})
	assert.Equal(t, State{Volume: 100, Muted: false}, s)
}

func TestProviderRun(t *testing.T) {
	server := newFakeServer()
	p := NewProvider(connectTo(server))
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	states := p.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case s := <-states:
		assert.Equal(t, State{Volume: 50}, s)
	case <-time.After(waitFor):
		t.Fatal("no initial state")
	}

	server.SetSink("alsa_output.pci", Sink{Volume: 65535, Muted: true})
	server.events <- struct{}{}
	select {
	case s := <-states:
		assert.Equal(t, State{Volume: 100, Muted: true}, s)
	case <-time.After(waitFor):
		t.Fatal("no state after sink event")
	}

	// Other sinks changing still re-fetch the default one
	server.events <- struct{}{}
	assert.Eventually(t, func() bool { return len(server.Queried()) == 3 }, waitFor, tick)
	for _, name := range server.Queried() {
		assert.Equal(t, "alsa_output.pci", name)
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, server.closed)
}

func TestProviderNoDefaultSink(t *testing.T) {
	server := newFakeServer()
	server.def = ""
	p := NewProvider(connectTo(server))
	defer p.Close()

	assert.NoError(t, p.Run(context.Background()))
	assert.Equal(t, State{}, p.State())
	assert.Empty(t, server.Queried())
}

func TestProviderConnectError(t *testing.T) {
	p := NewProvider(func() (Server, error) { return nil, errors.New("connection refused") })
	defer p.Close()
	assert.Error(t, p.Run(context.Background()))
	assert.Equal(t, State{}, p.State())
}

func TestProviderServerInfoError(t *testing.T) {
	server := newFakeServer()
	server.infoErr = errors.New("protocol error")
	p := NewProvider(connectTo(server))
	defer p.Close()
	assert.Error(t, p.Run(context.Background()))
}

func TestProviderSubscribeError(t *testing.T) {
	server := newFakeServer()
	server.subErr = errors.New("access denied")
	p := NewProvider(connectTo(server))
	defer p.Close()

	require.Error(t, p.Run(context.Background()))
	// The initial state was still published
	assert.Eventually(t, func() bool { return p.State() == State{Volume: 50} }, waitFor, tick)
}

func TestProviderSinkErrorKeepsRunning(t *testing.T) {
	server := newFakeServer()
	p := NewProvider(connectTo(server))
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	assert.Eventually(t, func() bool { return len(server.Queried()) == 1 }, waitFor, tick)

	server.mu.Lock()
	delete(server.sinks, "alsa_output.pci")
	server.mu.Unlock()
	server.events <- struct{}{}

	server.SetSink("alsa_output.pci", Sink{Volume: 0, Muted: true})
	server.events <- struct{}{}
	assert.Eventually(t, func() bool { return p.State() == State{Volume: 0, Muted: true} }, waitFor, tick)

	cancel()
	<-done
}

func TestProviderConnectionLost(t *testing.T) {
	server := newFakeServer()
	p := NewProvider(connectTo(server))
	defer p.Close()

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	assert.Eventually(t, func() bool { return len(server.Queried()) == 1 }, waitFor, tick)

	close(server.events)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(waitFor):
		t.Fatal("Run did not return after the connection was lost")
	}
	assert.True(t, server.closed)
}
