package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thantzaw/pocketpos/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Run the connectivity monitor and auto-sync scheduler until
interrupted.

The daemon probes the remote store periodically. Whenever connectivity
returns after an outage, every entity kind gets one sync-all pass:
pending records are pushed, then remote changes are pulled and
reconciled.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		auto := daemon.Shared(a.monitor, a.logs.Logger("autosync"))
		auto.Start()
		a.shop.RegisterAutoSync(auto)

		if err := a.monitor.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		watchCtx, cancelWatch := context.WithCancel(context.Background())
		stopWatch := a.shop.WatchRemote(watchCtx, a.cfg.Sync.ProbeInterval)
		defer cancelWatch()

		fmt.Println("Sync daemon running, press Ctrl-C to stop")

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs

		fmt.Println("Shutting down")
		stopWatch()
		auto.Stop()
	},
}
