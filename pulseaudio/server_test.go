package pulseaudio

import (
	"testing"

	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeServerCallbackCoalesces(t *testing.T) {
	s := &NativeServer{events: make(chan struct{}, 1)}

	s.callback(&proto.SubscribeEvent{})
	s.callback(&proto.SubscribeEvent{})
	// Other messages are ignored
	s.callback("started")

	assert.Len(t, s.events, 1)
}

func TestNativeServerConnectionClosed(t *testing.T) {
	events := make(chan struct{}, 1)
	s := &NativeServer{events: events}

	s.callback(&proto.SubscribeEvent{})
	s.callback(&proto.ConnectionClosed{})
	// Events after the connection is gone must not panic
	s.callback(&proto.SubscribeEvent{})
	s.callback(&proto.ConnectionClosed{})

	_, ok := <-events
	require.True(t, ok, "pending notification is still delivered")
	_, ok = <-events
	assert.False(t, ok)
}

func TestNativeServerSubscribeAfterClose(t *testing.T) {
	s := &NativeServer{}
	s.callback(&proto.ConnectionClosed{})

	_, err := s.SubscribeSinks()
	assert.ErrorIs(t, err, ErrConnectionClosed)
}
