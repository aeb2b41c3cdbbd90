package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/repository/postgres"
)

// newAdminBootstrapCmd grants admin rights by writing to the database
// named in the server environment. It works before any admin exists.
func newAdminBootstrapCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "bootstrap [email]",
		Short: "Promote a registered account directly in the database",
		Long: `Reads the server configuration (.env and DB_* variables), connects to the
database and sets is_admin on the account with the given email. Use --list to
show registered accounts instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !list && len(args) == 0 {
				return fmt.Errorf("an email is required unless --list is set")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load server config: %w", err)
			}
			db, err := postgres.New(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			ctx := context.Background()
			users := postgres.NewUserRepository(db)

			if list {
				all, _, err := users.List(ctx, user.Filter{}, 100, 0)
				if err != nil {
					return fmt.Errorf("failed to list users: %w", err)
				}
				table := NewTable("ID", "EMAIL", "NAME", "ADMIN")
				for _, u := range all {
					table.AddRow(strconv.FormatInt(u.ID, 10), u.Email, truncate(u.Name, 24), strconv.FormatBool(u.IsAdmin))
				}
				table.Render()
				return nil
			}

			u, err := users.GetByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("account %s not found; register it first: %w", args[0], err)
			}
			if u.IsAdmin {
				fmt.Printf("%s is already an administrator\n", u.Email)
				return nil
			}
			u.IsAdmin = true
			u.IsActive = true
			if err := users.Update(ctx, u); err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}

			fmt.Printf("%s (id %d) is now an administrator\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list registered accounts")
	return cmd
}
