package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/postgres"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/services"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	connect := func(cmd *cobra.Command) (*postgres.DB, error) {
		cfg, _, err := opts.load()
		if err != nil {
			return nil, err
		}
		return postgres.Connect(cmd.Context(), postgres.DefaultConfig(cfg.DatabaseURL))
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(); err != nil {
				return err
			}
			return printStatus(cmd, db)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.MigrateDown(steps); err != nil {
				return err
			}
			return printStatus(cmd, db)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the applied and latest schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return printStatus(cmd, db)
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func printStatus(cmd *cobra.Command, db *postgres.DB) error {
	st, err := db.MigrationStatus()
	if err != nil {
		return err
	}
	state := "up to date"
	switch {
	case st.Dirty:
		state = "dirty"
	case !st.UpToDate():
		state = "pending"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (%s)\n", st.Current, st.Latest, state)
	return nil
}

func newScanCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Ingest every pending file in the documents directory once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.scanner.ScanAndIngestPending(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			for _, f := range report.Files {
				line := fmt.Sprintf("%-8s %s", f.State, f.Name)
				if f.Chunks > 0 {
					line += fmt.Sprintf(" (%d chunks)", f.Chunks)
				}
				if f.Error != "" {
					line += ": " + f.Error
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "%d of %d files ingested in %s\n", report.Ingested(), len(report.Files), report.Duration)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the scan report as JSON")
	return cmd
}

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var scopeFlag string
	cmd := &cobra.Command{
		Use:   "ingest <path|url>",
		Short: "Read, chunk and index a single file or web page",
		Long: "Ingest writes one source to the vector indexes without renaming it.\n" +
			"Without --type, files named private* are private and everything else is public.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			scope, err := ingestScope(source, scopeFlag)
			if err != nil {
				return err
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.pipeline.IngestOne(ctx, source, scope)
			if !result.OK() {
				return result.Err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %s as %s: %d chunks in %s\n",
				result.Source, result.Scope, result.Chunks, result.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&scopeFlag, "type", "", "public or private")
	return cmd
}

// ingestScope resolves the scope for a CLI ingest
func ingestScope(source, flag string) (domain.AccessScope, error) {
	if flag != "" {
		return domain.ParseScope(flag)
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return domain.ScopePublic, nil
	}
	if _, err := os.Stat(source); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrSourceUnreadable, source, err)
	}
	return services.ScopeForName(filepath.Base(source)), nil
}
