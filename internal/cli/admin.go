package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/growen-ao/growen-api/pkg/client"
	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administration commands",
	}

	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminBootstrapCmd())
	cmd.AddCommand(newAdminSetPlanCmd())
	cmd.AddCommand(newAdminFlagCmd("promote", "Grant administrator rights", func(u *client.UserUpdate) { t := true; u.IsAdmin = &t }))
	cmd.AddCommand(newAdminFlagCmd("deactivate", "Disable an account", func(u *client.UserUpdate) { f := false; u.IsActive = &f }))
	cmd.AddCommand(newAdminFlagCmd("activate", "Re-enable an account", func(u *client.UserUpdate) { t := true; u.IsActive = &t }))

	return cmd
}

func newAdminUsersCmd() *cobra.Command {
	var (
		planID string
		active string
	)
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts, optionally by plan or active state",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := client.UserFilter{Plan: planID}
			if active != "" {
				b, err := strconv.ParseBool(active)
				if err != nil {
					return fmt.Errorf("--active must be true or false")
				}
				filter.Active = &b
			}

			users, err := apiClient.Admin().Users(context.Background(), filter)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(users)
			}

			table := NewTable("ID", "EMAIL", "NAME", "PLAN", "ACTIVE", "ADMIN", "CREATED")
			for _, u := range users {
				table.AddRow(
					strconv.FormatInt(u.ID, 10),
					truncate(u.Email, 32),
					truncate(u.Name, 24),
					u.Plan,
					strconv.FormatBool(u.IsActive),
					strconv.FormatBool(u.IsAdmin),
					formatTime(u.CreatedAt, "2006-01-02"),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "only accounts on this plan (free, starter, pro)")
	cmd.Flags().StringVar(&active, "active", "", "only active (true) or deactivated (false) accounts")
	return cmd
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

func newAdminSetPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-plan <user-id> <plan-id>",
		Short: "Move an account to another plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			planID := args[1]
			u, err := apiClient.Admin().UpdateUser(context.Background(), id, client.UserUpdate{Plan: &planID})
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			fmt.Printf("%s is now on plan %s\n", u.Email, u.Plan)
			return nil
		},
	}
}

func newAdminFlagCmd(use, short string, apply func(*client.UserUpdate)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			var upd client.UserUpdate
			apply(&upd)
			u, err := apiClient.Admin().UpdateUser(context.Background(), id, upd)
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			fmt.Printf("Updated %s (active=%t, admin=%t)\n", u.Email, u.IsActive, u.IsAdmin)
			return nil
		},
	}
}
