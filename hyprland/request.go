package hyprland

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/thiagokokada/barsync/helpers"
	"github.com/thiagokokada/barsync/internal/assert"
)

const bufSize = 8192

// Commands sent to the request socket. The "[j]/" prefix asks for JSON
// output.
var (
	MonitorsCommand   = RawRequest("[j]/monitors")
	WorkspacesCommand = RawRequest("[j]/workspaces")
	ClientsCommand    = RawRequest("[j]/clients")
)

// Requester is anything able to perform a raw request against the Hyprland
// request socket. [RequestClient] is the default implementation.
type Requester interface {
	Request(ctx context.Context, request RawRequest) (RawResponse, error)
}

func unmarshalResponse(response RawResponse, v any) (err error) {
	if len(response) == 0 {
		return errors.New("empty response")
	}

	err = json.Unmarshal(response, v)
	if err != nil {
		return fmt.Errorf("error during unmarshal: %w", err)
	}
	return nil
}

// Initiate a new client or panic.
// It will automatically find the proper socket to connect and use the
// HYPRLAND_INSTANCE_SIGNATURE for the current user.
// If you need to connect to arbitrary user instances or need a method that
// will not panic on error, use [NewClient] instead.
func MustClient() *RequestClient {
	return NewClient(assert.Must1(helpers.GetSocket(helpers.RequestSocket)))
}

// Initiate a new client.
// Receive as parameters a requestSocket that is generally localised in
// '$XDG_RUNTIME_DIR/hypr/$HYPRLAND_INSTANCE_SIGNATURE/.socket.sock'.
func NewClient(socket string) *RequestClient {
	return &RequestClient{
		conn: &net.UnixAddr{
			Net:  "unix",
			Name: socket,
		},
	}
}

// Low-level request method.
// Every request uses its own connection: the full request is written, then
// the response is read until Hyprland closes the connection. There is no
// length prefix, so this is the only place that knows about the framing.
func (c *RequestClient) Request(ctx context.Context, request RawRequest) (response RawResponse, err error) {
	if len(request) == 0 {
		return nil, errors.New("empty request")
	}

	// Connect to the request socket
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.conn.String())
	if err != nil {
		return nil, fmt.Errorf("error while connecting to socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("error while setting deadline: %w", err)
		}
	} else {
		stop := context.AfterFunc(ctx, func() {
			conn.SetDeadline(time.Now())
		})
		defer stop()
	}

	// Send the request to the socket
	_, err = conn.Write(request)
	if err != nil {
		return nil, fmt.Errorf("error while writing to socket: %w", err)
	}
	// Signal the end of the request
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return nil, fmt.Errorf("error while closing write side: %w", err)
		}
	}

	// Get the response back
	var rbuf bytes.Buffer
	sbuf := make([]byte, bufSize)
	for {
		n, err := conn.Read(sbuf)
		rbuf.Write(sbuf[:n])
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Join(fmt.Errorf("error while reading from socket: %w", err), ctx.Err())
		}
	}

	return rbuf.Bytes(), nil
}

func request[T any](ctx context.Context, r Requester, command RawRequest) (v T, err error) {
	response, err := r.Request(ctx, command)
	if err != nil {
		return v, fmt.Errorf("error while doing request %q: %w", command, err)
	}
	return v, unmarshalResponse(response, &v)
}

// Monitors command, similar to 'hyprctl monitors'.
// Returns a list of [Monitor] objects.
func Monitors(ctx context.Context, r Requester) ([]Monitor, error) {
	return request[[]Monitor](ctx, r, MonitorsCommand)
}

// Workspaces command, similar to 'hyprctl workspaces'.
// Returns a list of [Workspace] objects.
func Workspaces(ctx context.Context, r Requester) ([]Workspace, error) {
	return request[[]Workspace](ctx, r, WorkspacesCommand)
}

// Clients command, similar to 'hyprctl clients'.
// Returns a list of [Client] objects.
func Clients(ctx context.Context, r Requester) ([]Client, error) {
	return request[[]Client](ctx, r, ClientsCommand)
}
