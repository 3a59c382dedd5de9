package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities (schema init, ingestion runs)",
	}
	cmd.AddCommand(dbInitCmd())
	cmd.AddCommand(dbRunsCmd())
	return cmd
}

func dbInitCmd() *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the lakehouse and run ledger schemas in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if schemaPath == "" {
				if err := st.EnsureSchema(ctx); err != nil {
					return fmt.Errorf("apply schema: %w", err)
				}
			} else {
				b, err := os.ReadFile(schemaPath)
				if err != nil {
					return fmt.Errorf("read schema: %w", err)
				}
				if err := st.ExecSQL(ctx, string(b)); err != nil {
					return fmt.Errorf("apply schema: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok: schema applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "apply this SQL file instead of the built-in schema")
	return cmd
}

func dbRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingestion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(runs, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to show")
	return cmd
}
