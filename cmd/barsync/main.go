package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thiagokokada/barsync/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "barsync",
		Short: "Keep desktop status (compositor, audio, peripherals) in sync",
		Long: `barsync connects to Hyprland, the audio server and the OpenRazer daemon,
and publishes their state to any number of subscribers.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.WatchCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
