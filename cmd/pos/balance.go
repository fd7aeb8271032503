package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thantzaw/pocketpos/internal/ledger"
)

var balanceCmd = &cobra.Command{
	Use:   "balance (supplier|customer) <local-id>",
	Short: "Recalculate and show an account balance",
	Long: `Refold the account's ledger history from its opening balance and
store the derived snapshot. The running statement is printed row by
row.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		kind, localID := args[0], args[1]
		if kind != "supplier" && kind != "customer" {
			fmt.Fprintf(os.Stderr, "Error: account kind must be supplier or customer, got %q\n", kind)
			os.Exit(1)
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		ctx := context.Background()

		var steps []ledger.Step
		switch kind {
		case "supplier":
			if err := a.shop.Suppliers.RecalculateBalance(ctx, localID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			steps, err = a.shop.Suppliers.Statement(ctx, localID)
		case "customer":
			if err := a.shop.Customers.RecalculateBalance(ctx, localID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			steps, err = a.shop.Customers.Statement(ctx, localID)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(steps) == 0 {
			fmt.Println("No ledger entries")
		}
		for _, s := range steps {
			fmt.Printf("%s  %-9s %10s  running %10s  %s\n",
				s.Entry.Date.Format("2006-01-02"),
				s.Entry.Type,
				s.Entry.Amount.StringFixed(2),
				s.Running.StringFixed(2),
				s.Entry.Description)
		}

		printSnapshot(ctx, a, kind, localID)
	},
}

func printSnapshot(ctx context.Context, a *app, kind, localID string) {
	switch kind {
	case "supplier":
		sup, err := a.shop.Suppliers.Get(ctx, localID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %s %s\n", sup.Name, sup.CurrentBalance.StringFixed(2), sup.BalanceType)
	case "customer":
		cust, err := a.shop.Customers.Get(ctx, localID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %s %s\n", cust.Name, cust.CurrentBalance.StringFixed(2), cust.BalanceType)
	}
}
