package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/barsync/busconn"
	"github.com/thiagokokada/barsync/config"
	"github.com/thiagokokada/barsync/helpers"
	"github.com/thiagokokada/barsync/hyprland"
	"github.com/thiagokokada/barsync/logging"
	"github.com/thiagokokada/barsync/openrazer"
	"github.com/thiagokokada/barsync/pulseaudio"
)

const (
	providerCompositor = "compositor"
	providerAudio      = "audio"
	providerDevice     = "device"
)

var allProviders = []string{providerCompositor, providerAudio, providerDevice}

// printer serializes output lines from the provider goroutines.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func WatchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:       "watch [compositor|audio|device...]",
		Short:     "Print every state published by the providers",
		ValidArgs: allProviders,
		Args:      cobra.OnlyValidArgs,
		Long: `Starts the selected providers (all enabled ones by default) and prints
each new state on its own line until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := openConfig(configPath)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch(ctx, w, args, &printer{w: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	return cmd
}

func openConfig(path string) (*config.Watcher, error) {
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	w, err := config.NewWatcher(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Configure(w.Current().Log)
	w.OnReload(func(cfg *config.Config) { logging.Configure(cfg.Log) })
	return w, nil
}

func selected(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	var providers []string
	if cfg.Hyprland.Enabled {
		providers = append(providers, providerCompositor)
	}
	if cfg.PulseAudio.Enabled {
		providers = append(providers, providerAudio)
	}
	if cfg.OpenRazer.Enabled {
		providers = append(providers, providerDevice)
	}
	return providers
}

// watch runs the providers until ctx is done. A provider failing is logged
// and does not stop the others.
func watch(ctx context.Context, w *config.Watcher, args []string, out *printer) error {
	log := logging.NewLogger("watch")
	cfg := w.Current()
	providers := selected(cfg, args)
	if len(providers) == 0 {
		return fmt.Errorf("no provider enabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.Start(ctx)
		return nil
	})

	if slices.Contains(providers, providerCompositor) {
		p, err := newHyprlandProvider(cfg.Hyprland)
		if err != nil {
			log.WithError(err).Error("Compositor provider not started")
		} else {
			defer p.Close()
			states := p.Subscribe(ctx)
			listener := p.Start(ctx)
			g.Go(func() error {
				for s := range states {
					out.Println(FormatCompositor(s))
				}
				return nil
			})
			g.Go(func() error {
				<-listener
				return nil
			})
		}
	}

	if slices.Contains(providers, providerAudio) {
		p := pulseaudio.NewProvider(pulseaudio.DialConnector(cfg.PulseAudio.Server, cfg.PulseAudio.ClientName))
		defer p.Close()
		states := p.Subscribe(ctx)
		g.Go(func() error {
			for s := range states {
				out.Println(FormatAudio(s))
			}
			return nil
		})
		g.Go(func() error {
			p.Run(ctx)
			return nil
		})
	}

	if slices.Contains(providers, providerDevice) {
		var handle busconn.Handle[*dbus.Conn]
		go func() {
			conn, err := dbus.ConnectSessionBus()
			if err != nil {
				log.WithError(err).Error("Failed to connect to the session bus")
				return
			}
			handle.Set(conn)
		}()
		defer func() {
			if conn, ok := handle.Get(); ok {
				conn.Close()
			}
		}()

		p := openrazer.NewProvider(openrazer.FromHandle(&handle), w.PollingRate)
		defer p.Close()
		states := p.Subscribe(ctx)
		g.Go(func() error {
			for s := range states {
				out.Println(FormatDevice(s))
			}
			return nil
		})
		g.Go(func() error {
			p.Run(ctx)
			return nil
		})
	}

	return g.Wait()
}

func newHyprlandProvider(cfg config.HyprlandConfig) (*hyprland.Provider, error) {
	requestSocket, eventSocket := cfg.RequestSocket, cfg.EventSocket
	var err error
	if requestSocket == "" {
		if requestSocket, err = helpers.GetSocket(helpers.RequestSocket); err != nil {
			return nil, err
		}
	}
	if eventSocket == "" {
		if eventSocket, err = helpers.GetSocket(helpers.EventSocket); err != nil {
			return nil, err
		}
	}
	return hyprland.NewProviderFromSockets(requestSocket, eventSocket), nil
}
