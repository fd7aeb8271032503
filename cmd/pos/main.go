// Command pos is the offline-first point-of-sale sync tool.
//
// All entity data lives in a local SQLite database and syncs in the
// background to a remote libSQL database when connectivity allows.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thantzaw/pocketpos/internal/config"
	"github.com/thantzaw/pocketpos/internal/daemon"
	"github.com/thantzaw/pocketpos/internal/localdb"
	"github.com/thantzaw/pocketpos/internal/logging"
	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/shop"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "Offline-first POS and inventory sync",
	Long: `pos manages a small retail shop's categories, products, suppliers,
customers, sales, purchases, and payments.

Every write lands in the local database first and is pushed to the
remote store in the background. The shop keeps working with no
connectivity; records sync when the network returns.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $HOME/.pocketpos/config.yaml)")
	rootCmd.AddCommand(syncCmd, statusCmd, daemonCmd, balanceCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after startup wiring.
type app struct {
	cfg     *config.Config
	logs    *logging.Factory
	db      *localdb.DB
	store   remotedb.Store
	shop    *shop.Shop
	monitor *daemon.Monitor
}

// openApp loads config and wires the local database, the remote store,
// the shop services, and the connectivity monitor. The monitor is
// created but not started; commands that need the probe loop start it.
func openApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logs := logging.NewFactory(logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	db, err := localdb.Open(cfg.LocalDBPath())
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		logs.Close()
		return nil, fmt.Errorf("failed to initialize local schema: %w", err)
	}

	var store remotedb.Store
	if cfg.Remote.URL != "" {
		store, err = remotedb.OpenLibSQL(cfg.Remote.URL, cfg.Remote.AuthToken)
		if err != nil {
			db.Close()
			logs.Close()
			return nil, fmt.Errorf("failed to open remote store: %w", err)
		}
	} else {
		// No remote configured: run local-only. Every record stays
		// pending until a remote URL is set.
		offline := remotedb.NewMemoryStore()
		offline.SetOnline(false)
		store = offline
	}

	monitor := daemon.NewMonitor(store.Ping, &daemon.MonitorConfig{
		ProbeInterval: cfg.Sync.ProbeInterval,
		ProbeTimeout:  cfg.Sync.ProbeTimeout,
		Logger:        logs.Logger("monitor"),
	})

	// Establish the initial connectivity state before any command runs.
	monitor.CheckNow()

	sh := shop.New(db, store, monitor.Online, logs.Logger("shop"))

	return &app{
		cfg:     cfg,
		logs:    logs,
		db:      db,
		store:   store,
		shop:    sh,
		monitor: monitor,
	}, nil
}

// Close waits for background sync work and releases every resource.
func (a *app) Close() {
	a.shop.Wait()
	a.monitor.Stop()
	a.store.Close()
	if err := a.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close local database: %v\n", err)
	}
	a.logs.Close()
}
