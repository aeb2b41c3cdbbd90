package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show plan usage and pending payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			current, err := apiClient.Plans().Current(ctx)
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}
			payments, err := apiClient.Payments().Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get payments: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(map[string]interface{}{
					"plan":     current,
					"payments": payments,
				})
			}

			fmt.Println("Growen")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Plan:          %s (%s)\n", current.Name, formatAmount(current.Price, current.Currency))
			if current.SubscriptionExpires != nil {
				fmt.Printf("  Renews before: %s\n", formatTime(*current.SubscriptionExpires, "2006-01-02"))
			}

			features := make([]string, 0, len(current.Usage))
			for f := range current.Usage {
				features = append(features, f)
			}
			sort.Strings(features)
			for _, f := range features {
				u := current.Usage[f]
				fmt.Printf("  %-14s %s\n", f+":", formatUsage(u.Used, u.Limit))
			}

			pending := 0
			for _, p := range payments {
				if p.Status == "pending" {
					pending++
				}
			}
			fmt.Printf("  Payments:      %d submitted, %d pending review\n", len(payments), pending)
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	var deep bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			h, err := apiClient.Health(ctx)
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			fmt.Printf("%s %s (%s)\n", h.Service, h.Status, h.Version)
			if !deep {
				return nil
			}

			ready, err := apiClient.Ready(ctx)
			if err != nil {
				return fmt.Errorf("server not ready: %w", err)
			}
			fmt.Printf("readiness: %s\n", ready.Status)
			for _, name := range ready.Names() {
				dep := ready.Dependencies[name]
				fmt.Printf("  %-10s %s (%dms)\n", name, dep.Status, dep.LatencyMS)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "ready", false, "also check database and Redis readiness")
	return cmd
}
