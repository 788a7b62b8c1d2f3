// portalctl manages the challenge catalog of a portal database from the
// command line.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"challenge-portal/internal/catalog"
	"challenge-portal/internal/config"
	"challenge-portal/internal/repository"
	"challenge-portal/internal/repository/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree so tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:          "portalctl",
		Short:        "Administer the challenge portal database",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (defaults to PORTAL_DATABASE_PATH or data/portal.db)")

	open := func(ctx context.Context) (*sql.DB, repository.ChallengeRepository, error) {
		path := dbPath
		if path == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, nil, err
			}
			path = cfg.Database.Path
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		repo := sqlite.NewChallengeRepository(db)
		if err := repo.Init(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("init challenge repository: %w", err)
		}
		return db, repo, nil
	}

	challenges := &cobra.Command{
		Use:   "challenges",
		Short: "Manage the challenge catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Insert or update challenges from a YAML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			db, repo, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := catalog.Import(cmd.Context(), repo, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d challenges.\n", n)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List challenges in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, repo, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := repo.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list challenges: %w", err)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No challenges found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tDIFFICULTY")
			for _, c := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Title, c.Difficulty)
			}
			return w.Flush()
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as YAML to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, repo, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := repo.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list challenges: %w", err)
			}
			return catalog.Export(cmd.OutOrStdout(), items)
		},
	}

	challenges.AddCommand(importCmd, listCmd, exportCmd)
	root.AddCommand(challenges)
	return root
}
