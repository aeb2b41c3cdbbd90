package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Subscription plans",
	}

	cmd.AddCommand(newPlansAvailableCmd())
	cmd.AddCommand(newPlansCurrentCmd())

	return cmd
}

func newPlansAvailableCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "available",
		Aliases: []string{"list"},
		Short:   "List the plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Plans().Available(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(plans)
			}

			ids := make([]string, 0, len(plans))
			for id := range plans {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return plans[ids[i]].Price < plans[ids[j]].Price })

			table := NewTable("ID", "NAME", "PRICE", "FEATURES")
			for _, id := range ids {
				p := plans[id]
				table.AddRow(id, p.Name, formatAmount(p.Price, p.Currency), truncate(strings.Join(p.Features, ", "), 60))
			}
			table.Render()
			return nil
		},
	}
}

func newPlansCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the current plan and monthly usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := apiClient.Plans().Current(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get plan: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(current)
			}

			fmt.Printf("Plan: %s (%s)\n\n", current.Name, formatAmount(current.Price, current.Currency))
			features := make([]string, 0, len(current.Usage))
			for f := range current.Usage {
				features = append(features, f)
			}
			sort.Strings(features)

			table := NewTable("FEATURE", "USAGE")
			for _, f := range features {
				u := current.Usage[f]
				table.AddRow(f, formatUsage(u.Used, u.Limit))
			}
			table.Render()
			return nil
		},
	}
}
