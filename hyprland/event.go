package hyprland

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/thiagokokada/barsync/helpers"
	"github.com/thiagokokada/barsync/internal/assert"
)

const sep = ">>"

// Initiate a new event client or panic.
// If you need to connect to arbitrary user instances or need a method that
// will not panic on error, use [NewEventClient] instead.
func MustEventClient() *EventClient {
	return assert.Must1(NewEventClient(
		context.Background(),
		assert.Must1(helpers.GetSocket(helpers.EventSocket)),
	))
}

// Initiate a new event client.
// Receive as parameters a socket that is generally localised in
// '$XDG_RUNTIME_DIR/hypr/$HYPRLAND_INSTANCE_SIGNATURE/.socket2.sock'.
func NewEventClient(ctx context.Context, socket string) (*EventClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to socket: %w", err)
	}
	return &EventClient{conn: conn, r: bufio.NewReaderSize(conn, bufSize)}, nil
}

// Close the underlying connection.
func (c *EventClient) Close() error {
	err := c.conn.Close()
	if err != nil {
		return fmt.Errorf("error while closing socket: %w", err)
	}
	return err
}

// ParseEvent splits a "key>>value" line.
func ParseEvent(line string) (Event, error) {
	key, value, ok := strings.Cut(line, sep)
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrMalformedEvent, line)
	}
	return Event{Type: EventType(key), Data: value}, nil
}

// Low-level receive event method, returns the next event line.
func (c *EventClient) Receive(ctx context.Context) (Event, error) {
	line, err := c.readLine(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("error while reading from socket: %w", err)
	}
	return ParseEvent(strings.TrimSuffix(line, "\n"))
}

// Subscribe to events until an error happens or ctx is done.
// Malformed events end the subscription.
func (c *EventClient) Subscribe(ctx context.Context, ev EventHandler) error {
	for {
		msg, err := c.Receive(ctx)
		if err != nil {
			return fmt.Errorf("event processing: %w", err)
		}
		if err := processEvent(ev, msg); err != nil {
			return fmt.Errorf("event processing: %w", err)
		}
	}
}

func (c *EventClient) readLine(ctx context.Context) (line string, err error) {
	done := make(chan struct{})

	// Start a goroutine to perform the read
	go func() {
		line, err = c.r.ReadString('\n')
		close(done)
	}()

	select {
	case <-done:
		return line, err
	case <-ctx.Done():
		// Set a short deadline to unblock the Read()
		if e := c.conn.SetReadDeadline(time.Now()); e != nil {
			return "", e
		}
		// Make sure that the goroutine is done to avoid leaks
		<-done
		// Reset read deadline
		if e := c.conn.SetReadDeadline(time.Time{}); e != nil {
			err = errors.Join(err, e)
		}
		return "", errors.Join(err, ctx.Err())
	}
}

func processEvent(ev EventHandler, msg Event) error {
	malformed := func(err error) error {
		return fmt.Errorf("%w: %s>>%s: %w", ErrMalformedEvent, msg.Type, msg.Data, err)
	}

	switch msg.Type {
	case EventWorkspace:
		ev.Workspace(WorkspaceName(msg.Data))
	case EventOpenWindow:
		raw := strings.SplitN(msg.Data, ",", 4)
		if len(raw) < 4 {
			return malformed(errors.New("want 4 fields"))
		}
		addr, err := ParseWindowID(raw[0])
		if err != nil {
			return malformed(err)
		}
		ev.OpenWindow(OpenWindow{
			Address:       addr,
			WorkspaceName: WorkspaceName(raw[1]),
			Class:         raw[2],
			Title:         raw[3],
		})
	case EventMoveWindow:
		raw := strings.SplitN(msg.Data, ",", 2)
		if len(raw) < 2 {
			return malformed(errors.New("want 2 fields"))
		}
		addr, err := ParseWindowID(raw[0])
		if err != nil {
			return malformed(err)
		}
		ev.MoveWindow(MoveWindow{
			Address:       addr,
			WorkspaceName: WorkspaceName(raw[1]),
		})
	case EventActiveWindowV2:
		// Sent as "," (or empty) when no window is focused
		if msg.Data == "," || msg.Data == "" {
			ev.Unhandled(msg)
			return nil
		}
		addr, err := ParseWindowID(msg.Data)
		if err != nil {
			return malformed(err)
		}
		ev.ActiveWindowV2(addr)
	case EventCloseWindow:
		addr, err := ParseWindowID(msg.Data)
		if err != nil {
			return malformed(err)
		}
		ev.CloseWindow(addr)
	default:
		ev.Unhandled(msg)
	}
	return nil
}
