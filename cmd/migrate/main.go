package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/repository/postgres"
)

func main() {
	root := &cobra.Command{
		Use:           "growen-migrate",
		Short:         "Apply the Growen database schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), up)
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), status)
		},
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB, string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)
	return fn(ctx, db, cfg.Database.Driver)
}

func up(ctx context.Context, db *sql.DB, driver string) error {
	applied, err := postgres.Migrate(ctx, db, driver)
	for _, name := range applied {
		fmt.Printf("  applied %s\n", name)
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if len(applied) == 0 {
		fmt.Println("Database is up to date")
		return nil
	}
	fmt.Printf("Applied %d migration(s)\n", len(applied))
	return nil
}

func status(ctx context.Context, db *sql.DB, driver string) error {
	list, err := postgres.Status(ctx, db, driver)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tSTATE")
	pending := 0
	for _, m := range list {
		state := "applied"
		if !m.Applied {
			state = "pending"
			pending++
		}
		fmt.Fprintf(w, "%s\t%s\n", m.Name, state)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d pending\n", pending)
	return nil
}
