package pulseaudio

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/jfreymuth/pulse/proto"
)

var (
	ErrNoChannels       = errors.New("sink has no channels")
	ErrConnectionClosed = errors.New("audio server connection closed")
)

// Sink is the part of a sink's info the provider needs.
type Sink struct {
	// Raw volume of the first channel, 0 to 65535 (100%).
	Volume uint32
	Muted  bool
}

// Server is a connection to the audio server. [NativeServer] is the default
// implementation.
type Server interface {
	// DefaultSinkName returns "" when the server has no default sink.
	DefaultSinkName() (string, error)
	SinkVolume(name string) (Sink, error)
	// SubscribeSinks returns a channel that receives a value after sink
	// changes. Notifications arriving while one is pending are coalesced.
	// The channel is closed when the connection is lost.
	SubscribeSinks() (<-chan struct{}, error)
	Close() error
}

// NativeServer talks the PulseAudio native protocol, which PipeWire also
// serves.
type NativeServer struct {
	client *proto.Client
	conn   net.Conn

	mu     sync.Mutex
	events chan struct{}
	closed bool
}

var _ Server = (*NativeServer)(nil)

// Dial connects and authenticates to server ("" for the default server)
// and registers as clientName.
func Dial(server, clientName string) (*NativeServer, error) {
	client, conn, err := proto.Connect(server)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to audio server: %w", err)
	}

	s := &NativeServer{
		client: client,
		conn:   conn,
	}
	client.Callback = s.callback

	err = client.Request(&proto.Auth{Version: client.Version(), Cookie: readCookie()}, &proto.AuthReply{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error while authenticating: %w", err)
	}

	props := proto.PropList{
		"application.name":           proto.PropListString(clientName),
		"application.process.id":     proto.PropListString(fmt.Sprint(os.Getpid())),
		"application.process.binary": proto.PropListString(filepath.Base(os.Args[0])),
	}
	err = client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error while setting client name: %w", err)
	}

	return s, nil
}

// readCookie returns the authentication cookie, or nil when none is
// found (PipeWire does not require one).
func readCookie() []byte {
	var paths []string
	if p := os.Getenv("PULSE_COOKIE"); p != "" {
		paths = append(paths, p)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "pulse", "cookie"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pulse-cookie"))
	}
	for _, p := range paths {
		if cookie, err := os.ReadFile(p); err == nil && len(cookie) == 256 {
			return cookie
		}
	}
	return nil
}

// callback runs on the protocol reader goroutine.
func (s *NativeServer) callback(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch msg.(type) {
	case *proto.SubscribeEvent:
		if s.events == nil {
			return
		}
		select {
		case s.events <- struct{}{}:
		default:
		}
	case *proto.ConnectionClosed:
		s.closed = true
		if s.events != nil {
			close(s.events)
		}
	}
}

func (s *NativeServer) DefaultSinkName() (string, error) {
	var info proto.GetServerInfoReply
	if err := s.client.Request(&proto.GetServerInfo{}, &info); err != nil {
		return "", fmt.Errorf("error while getting server info: %w", err)
	}
	return info.DefaultSinkName, nil
}

func (s *NativeServer) SinkVolume(name string) (Sink, error) {
	var info proto.GetSinkInfoReply
	err := s.client.Request(&proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: name}, &info)
	if err != nil {
		return Sink{}, fmt.Errorf("error while getting sink %q: %w", name, err)
	}
	if len(info.ChannelVolumes) == 0 {
		return Sink{}, fmt.Errorf("sink %q: %w", name, ErrNoChannels)
	}
	return Sink{Volume: info.ChannelVolumes[0], Muted: info.Mute}, nil
}

func (s *NativeServer) SubscribeSinks() (<-chan struct{}, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	if s.events == nil {
		s.events = make(chan struct{}, 1)
	}
	events := s.events
	s.mu.Unlock()

	if err := s.client.Request(&proto.Subscribe{Mask: proto.SubscriptionMaskSink}, nil); err != nil {
		return nil, fmt.Errorf("error while subscribing to sink events: %w", err)
	}
	return events, nil
}

func (s *NativeServer) Close() error {
	err := s.conn.Close()
	if err != nil {
		return fmt.Errorf("error while closing connection: %w", err)
	}
	return nil
}
