package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thantzaw/pocketpos/internal/report"
)

var (
	reportFrom string
	reportTo   string
)

var reportCmd = &cobra.Command{
	Use:       "report (sales|purchases)",
	Short:     "Summarize sales or purchases over a date range",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"sales", "purchases"},
	Run: func(cmd *cobra.Command, args []string) {
		from, to, err := reportRange()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		r := report.New(a.shop)
		ctx := context.Background()

		var s *report.Summary
		switch args[0] {
		case "sales":
			s, err = r.SalesSummary(ctx, from, to)
		case "purchases":
			s, err = r.PurchasesSummary(ctx, from, to)
		default:
			fmt.Fprintf(os.Stderr, "Error: report kind must be sales or purchases, got %q\n", args[0])
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s %s to %s: %d documents\n",
			args[0], from.Format("2006-01-02"), to.Format("2006-01-02"), s.Count)
		fmt.Printf("  total %s  paid %s  due %s\n",
			s.Total.StringFixed(2), s.Paid.StringFixed(2), s.Due.StringFixed(2))
		for _, d := range s.Days {
			fmt.Printf("  %s  %3d  total %10s  due %10s\n",
				d.Day, d.Count, d.Total.StringFixed(2), d.Due.StringFixed(2))
		}
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "start date YYYY-MM-DD (default 30 days ago)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "end date YYYY-MM-DD (default today)")
}

// reportRange resolves the --from/--to flags. The end date is pushed to
// the end of its day so same-day documents are included.
func reportRange() (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30).Truncate(24 * time.Hour)
	to := now

	if reportFrom != "" {
		t, err := time.Parse("2006-01-02", reportFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q", reportFrom)
		}
		from = t
	}
	if reportTo != "" {
		t, err := time.Parse("2006-01-02", reportTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q", reportTo)
		}
		to = t.Add(24*time.Hour - time.Nanosecond)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return from, to, nil
}
