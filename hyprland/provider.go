package hyprland

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/thiagokokada/barsync"
	"github.com/thiagokokada/barsync/helpers"
	"github.com/thiagokokada/barsync/logging"
)

// EventReceiver is a subscribed connection to the event socket.
// [EventClient] is the default implementation.
type EventReceiver interface {
	Subscribe(ctx context.Context, ev EventHandler) error
	Close() error
}

// Dialer opens a new [EventReceiver].
type Dialer func(ctx context.Context) (EventReceiver, error)

// SocketDialer returns a [Dialer] for the event socket at path.
func SocketDialer(path string) Dialer {
	return func(ctx context.Context) (EventReceiver, error) {
		return NewEventClient(ctx, path)
	}
}

// Provider keeps a [State] in sync with a running Hyprland instance.
type Provider struct {
	store     *barsync.Store[State, Message]
	requester Requester
	dial      Dialer
	log       *logrus.Entry

	// Context of the last Start call, used by hook-triggered refreshes.
	mu   sync.Mutex
	base context.Context
}

// NewProvider creates a provider. Nothing is fetched until [Provider.Start]
// or [Provider.Refresh] is called.
func NewProvider(requester Requester, dial Dialer) *Provider {
	p := &Provider{
		requester: requester,
		dial:      dial,
		log:       logging.NewLogger("hyprland"),
		base:      context.Background(),
	}
	p.store = barsync.New(State{}, Reduce, barsync.WithHook[State, Message](p.onMessage))
	return p
}

// NewProviderFromSockets creates a provider for the given request and event
// socket paths.
func NewProviderFromSockets(requestSocket, eventSocket string) *Provider {
	return NewProvider(NewClient(requestSocket), SocketDialer(eventSocket))
}

// NewProviderFromEnv creates a provider for the current Hyprland instance,
// see [helpers.GetSocket].
func NewProviderFromEnv() (*Provider, error) {
	requestSocket, err := helpers.GetSocket(helpers.RequestSocket)
	if err != nil {
		return nil, err
	}
	eventSocket, err := helpers.GetSocket(helpers.EventSocket)
	if err != nil {
		return nil, err
	}
	return NewProviderFromSockets(requestSocket, eventSocket), nil
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

// Start spawns the event listener and requests the initial refresh. The
// returned channel receives the error that ended the listener, then is
// closed. The listener never reconnects.
func (p *Provider) Start(ctx context.Context) <-chan error {
	p.mu.Lock()
	p.base = ctx
	p.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		err := p.listen(ctx)
		if err != nil && ctx.Err() == nil {
			p.log.WithError(err).Error("Event listener stopped")
		}
		errCh <- err
	}()

	p.store.Emit(RequestRefresh{})
	return errCh
}

// Refresh fetches monitors, workspaces and clients, and publishes the
// normalized snapshot.
func (p *Provider) Refresh(ctx context.Context) error {
	monitors, err := Monitors(ctx, p.requester)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	workspaces, err := Workspaces(ctx, p.requester)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	clients, err := Clients(ctx, p.requester)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	snapshot, err := Normalize(monitors, workspaces, clients)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	p.store.Emit(Refresh{Snapshot: snapshot})
	return nil
}

func (p *Provider) refreshLogged(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.log.WithError(err).Error("Refresh failed")
	}
}

func (p *Provider) onMessage(msg Message) {
	if _, ok := msg.(RequestRefresh); ok {
		p.mu.Lock()
		ctx := p.base
		p.mu.Unlock()
		go p.refreshLogged(ctx)
	}
}

func (p *Provider) listen(ctx context.Context) error {
	rcv, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to event socket: %w", err)
	}
	defer rcv.Close()

	p.log.Debug("Listening for events")
	return rcv.Subscribe(ctx, &providerHandler{p: p, ctx: ctx})
}

// providerHandler turns events into refreshes and narrow updates.
type providerHandler struct {
	DefaultEventHandler
	p   *Provider
	ctx context.Context
}

func (h *providerHandler) Workspace(WorkspaceName) {
	h.p.refreshLogged(h.ctx)
}

func (h *providerHandler) OpenWindow(OpenWindow) {
	h.p.refreshLogged(h.ctx)
}

func (h *providerHandler) MoveWindow(MoveWindow) {
	h.p.refreshLogged(h.ctx)
}

func (h *providerHandler) ActiveWindowV2(id uint64) {
	h.p.store.Emit(ActiveWindow{ID: id})
}

func (h *providerHandler) CloseWindow(id uint64) {
	h.p.store.Emit(CloseWindow{ID: id})
}

func (h *providerHandler) Unhandled(ev Event) {
	h.p.log.WithField("event", ev.Type).Trace("Ignoring event")
}
