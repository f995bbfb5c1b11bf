package hyprland

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	monitorsJSON = `[
  {"id": 0, "name": "DP-1", "description": "Dell", "width": 2560, "height": 1440,
   "activeWorkspace": {"id": 1, "name": "1"}, "specialWorkspace": {"id": 0, "name": ""}, "focused": true},
  {"id": 1, "name": "HDMI-A-1", "description": "LG", "width": 1920, "height": 1080,
   "activeWorkspace": {"id": 3, "name": "3"}, "specialWorkspace": {"id": 0, "name": ""}, "focused": false}
]`
	workspacesJSON = `[
  {"id": 1, "name": "1", "monitor": "DP-1", "monitorID": 0, "windows": 2, "hasfullscreen": false,
   "lastwindow": "0x55d0c1a2b3c0", "lastwindowtitle": "nvim"},
  {"id": 2, "name": "2", "monitor": "DP-1", "monitorID": 0, "windows": 0, "hasfullscreen": false,
   "lastwindow": "0x0", "lastwindowtitle": ""},
  {"id": 3, "name": "3", "monitor": "HDMI-A-1", "monitorID": 1, "windows": 1, "hasfullscreen": false,
   "lastwindow": "0x55d0c1a2b4f0", "lastwindowtitle": "firefox"},
  {"id": -98, "name": "special:scratch", "monitor": "DP-1", "monitorID": 0, "windows": 1, "hasfullscreen": false,
   "lastwindow": "0x55d0c1a2b500", "lastwindowtitle": "btop"}
]`
	clientsJSON = `[
  {"address": "0x55d0c1a2b3c0", "mapped": true, "hidden": false, "workspace": {"id": 1, "name": "1"},
   "floating": false, "monitor": 0, "class": "kitty", "title": "nvim", "pid": 100},
  {"address": "0x55d0c1a2b3d0", "mapped": true, "hidden": false, "workspace": {"id": 1, "name": "1"},
   "floating": false, "monitor": 0, "class": "kitty", "title": "zsh", "pid": 101},
  {"address": "0x55d0c1a2b4f0", "mapped": true, "hidden": false, "workspace": {"id": 3, "name": "3"},
   "floating": false, "monitor": 1, "class": "firefox", "title": "firefox", "pid": 102},
  {"address": "0x55d0c1a2b500", "mapped": true, "hidden": false, "workspace": {"id": -98, "name": "special:scratch"},
   "floating": true, "monitor": 0, "class": "kitty", "title": "btop", "pid": 103}
]`
)

var fixtures = map[string]string{
	string(MonitorsCommand):   monitorsJSON,
	string(WorkspacesCommand): workspacesJSON,
	string(ClientsCommand):    clientsJSON,
}

// fakeServer mimics the request socket: it reads the full request until the
// client half-closes, writes the response and closes the connection.
type fakeServer struct {
	mu       sync.Mutex
	requests []string
	ln       net.Listener
}

func newFakeServer(t *testing.T, responses map[string]string) (*fakeServer, string) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), ".socket.sock")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	s := &fakeServer{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handle(conn, responses)
		}
	}()
	return s, socket
}

func (s *fakeServer) handle(conn net.Conn, responses map[string]string) {
	defer conn.Close()
	req, err := io.ReadAll(conn)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, string(req))
	s.mu.Unlock()
	conn.Write([]byte(responses[string(req)]))
}

func (s *fakeServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// fakeRequester answers from memory, without any socket.
type fakeRequester struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
}

func (f *fakeRequester) Request(_ context.Context, req RawRequest) (RawResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return RawResponse(f.responses[string(req)]), nil
}

func (f *fakeRequester) Set(cmd RawRequest, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[string(cmd)] = response
}

func newFakeRequester() *fakeRequester {
	responses := make(map[string]string, len(fixtures))
	for k, v := range fixtures {
		responses[k] = v
	}
	return &fakeRequester{responses: responses}
}

func TestRequest(t *testing.T) {
	version := `{"tag": "v` + SupportedVersion + `"}`
	server, socket := newFakeServer(t, map[string]string{"[j]/version": version})
	c := NewClient(socket)

	response, err := c.Request(context.Background(), RawRequest("[j]/version"))
	require.NoError(t, err)
	assert.JSONEq(t, version, string(response))
	assert.Equal(t, []string{"[j]/version"}, server.Requests())
}

func TestRequestLargeResponse(t *testing.T) {
	// Bigger than the read buffer, so it needs multiple reads
	large := make([]byte, 5*bufSize+123)
	for i := range large {
		large[i] = 'a' + byte(i%26)
	}
	_, socket := newFakeServer(t, map[string]string{"big": string(large)})

	response, err := NewClient(socket).Request(context.Background(), RawRequest("big"))
	require.NoError(t, err)
	assert.Equal(t, large, []byte(response))
}

func TestRequestEmpty(t *testing.T) {
	_, err := NewClient("/nonexistent").Request(context.Background(), RawRequest(""))
	assert.Error(t, err)
}

func TestRequestConnectionError(t *testing.T) {
	_, err := NewClient(filepath.Join(t.TempDir(), "missing.sock")).
		Request(context.Background(), MonitorsCommand)
	assert.ErrorContains(t, err, "error while connecting to socket")
}

func TestRequestContextCancel(t *testing.T) {
	socket := filepath.Join(t.TempDir(), ".socket.sock")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	defer ln.Close()

	// Accept but never answer
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.ReadAll(conn)
		time.Sleep(time.Second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewClient(socket).Request(ctx, MonitorsCommand)
	assert.Error(t, err)
}

func TestMonitorsWorkspacesClients(t *testing.T) {
	_, socket := newFakeServer(t, fixtures)
	c := NewClient(socket)
	ctx := context.Background()

	monitors, err := Monitors(ctx, c)
	require.NoError(t, err)
	require.Len(t, monitors, 2)
	assert.Equal(t, "DP-1", monitors[0].Name)
	assert.True(t, monitors[0].Focused)
	assert.Equal(t, 1, monitors[0].ActiveWorkspace.Id)

	workspaces, err := Workspaces(ctx, c)
	require.NoError(t, err)
	require.Len(t, workspaces, 4)
	assert.Equal(t, "0x55d0c1a2b3c0", workspaces[0].LastWindow)
	assert.Equal(t, -98, workspaces[3].Id)

	clients, err := Clients(ctx, c)
	require.NoError(t, err)
	require.Len(t, clients, 4)
	assert.Equal(t, "firefox", clients[2].Class)
}

func TestUnmarshalEmptyResponse(t *testing.T) {
	r := newFakeRequester()
	r.Set(MonitorsCommand, "")
	_, err := Monitors(context.Background(), r)
	assert.ErrorContains(t, err, "empty response")
}

func TestIntegrationRequest(t *testing.T) {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") == "" {
		t.Skip("HYPRLAND_INSTANCE_SIGNATURE not set, skipping test")
	}

	c := MustClient()
	ctx := context.Background()
	monitors, err := Monitors(ctx, c)
	require.NoError(t, err)
	assert.NotEmpty(t, monitors)

	workspaces, err := Workspaces(ctx, c)
	require.NoError(t, err)
	clients, err := Clients(ctx, c)
	require.NoError(t, err)

	_, err = Normalize(monitors, workspaces, clients)
	assert.NoError(t, err)
}
