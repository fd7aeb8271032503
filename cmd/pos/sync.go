package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push all pending records and pull remote changes",
	Long: `Run one full synchronization pass:

  1. Push every locally pending record of every kind
  2. Pull remote changes and reconcile them into the local store

Push failures are logged and counted; they never abort the pass.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if !a.monitor.Online() {
			fmt.Fprintln(os.Stderr, "Error: remote store unreachable, records stay pending")
			os.Exit(1)
		}

		ctx := context.Background()
		start := time.Now()

		pushed, failed, err := a.shop.SyncAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for _, s := range a.shop.Syncers() {
			if err := s.Pull(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: pull failed for %s: %v\n", s.Kind(), err)
			}
		}

		fmt.Printf("Sync complete in %s: pushed %d, failed %d\n",
			time.Since(start).Round(time.Millisecond), pushed, failed)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and pending record counts",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if a.monitor.Online() {
			fmt.Println("Remote store: online")
		} else {
			fmt.Println("Remote store: offline")
		}

		counts, err := a.shop.PendingCounts(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		kinds := make([]string, 0, len(counts))
		for kind := range counts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		total := 0
		fmt.Println("Pending records:")
		for _, kind := range kinds {
			fmt.Printf("  %-12s %d\n", kind, counts[kind])
			total += counts[kind]
		}
		fmt.Printf("  %-12s %d\n", "total", total)
	},
}
