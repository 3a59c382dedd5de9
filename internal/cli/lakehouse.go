package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"macae/internal/columnar"
	"macae/internal/lakehouse"
	"macae/internal/settings"
	"macae/internal/store"
)

func ingestCmd() *cobra.Command {
	var filesDir, parquetDir string
	var noReports bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the retail datasets into lakehouse tables, run the reports and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			filesDir = resolveFilesDir(filesDir)
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			runID, err := st.CreateRun(ctx, store.Run{
				Phase:  "ingest",
				Status: "running",
				Actor:  os.Getenv("USER"),
				Source: filesDir,
			})
			if err != nil {
				return err
			}
			runLog := log.WithField("run_id", runID)

			in := &lakehouse.Ingester{Tables: st, BaseDir: filesDir, Log: runLog}
			if parquetDir != "" {
				in.Snapshots = columnar.NewExporter(parquetDir)
			}

			out := cmd.OutOrStdout()
			results, err := runIngest(ctx, out, st, in, !noReports)
			if err != nil {
				rb, _ := json.Marshal(map[string]string{"error": err.Error()})
				if ferr := st.FinishRun(ctx, runID, "failed", rb); ferr != nil {
					runLog.WithError(ferr).Warn("record failed run")
				}
				return err
			}
			rb, err := json.Marshal(map[string]any{"tables": results})
			if err != nil {
				return err
			}
			return st.FinishRun(ctx, runID, "ok", rb)
		},
	}
	filesDirFlag(cmd, &filesDir)
	cmd.Flags().StringVar(&parquetDir, "parquet-dir", "", "also write a Parquet snapshot of every table here")
	cmd.Flags().BoolVar(&noReports, "no-reports", false, "skip the report queries")
	return cmd
}

// runIngest loads every dataset, then prints the reports, the table list and the summary.
func runIngest(ctx context.Context, out io.Writer, st *store.Store, in *lakehouse.Ingester, reports bool) ([]lakehouse.TableResult, error) {
	results, err := in.Run(ctx)
	if err != nil {
		return results, err
	}
	if err := lakehouse.WriteIngestResults(out, results); err != nil {
		return results, err
	}
	fmt.Fprintln(out)

	if reports {
		if err := printReports(ctx, out, st, lakehouse.Reports); err != nil {
			return results, err
		}
	}

	tables, err := st.ListTables(ctx)
	if err != nil {
		return results, err
	}
	fmt.Fprintf(out, "tables: %s\n\n", strings.Join(tables, ", "))

	counts, err := lakehouse.Summarize(ctx, st, lakehouse.TableNames())
	if err != nil {
		return results, err
	}
	lakehouse.WriteSummary(out, counts)
	return results, nil
}

func printReports(ctx context.Context, out io.Writer, q lakehouse.Querier, reports []lakehouse.Report) error {
	results, err := lakehouse.RunReports(ctx, q, reports)
	if err != nil {
		return err
	}
	for _, r := range results {
		log.WithFields(logrus.Fields{"report": r.Report.Name, "rows": len(r.Result.Rows)}).Debug("report done")
		if err := lakehouse.WriteResult(out, r.Report.Title, r.Result); err != nil {
			return err
		}
	}
	return nil
}

func reportCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "report [name...]",
		Short: "Run the fixed lakehouse reports (all of them when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, r := range lakehouse.Reports {
					fmt.Fprintf(out, "%-22s %s\n", r.Name, r.Title)
				}
				return nil
			}
			reports, err := selectReports(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			return printReports(ctx, out, st, reports)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list report names and exit")
	return cmd
}

func selectReports(names []string) ([]lakehouse.Report, error) {
	if len(names) == 0 {
		return lakehouse.Reports, nil
	}
	out := make([]lakehouse.Report, 0, len(names))
	for _, n := range names {
		r, ok := lakehouse.FindReport(n)
		if !ok {
			return nil, fmt.Errorf("unknown report %q (see report --list)", n)
		}
		out = append(out, r)
	}
	return out, nil
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print row counts of the lakehouse tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			counts, err := lakehouse.Summarize(ctx, st, lakehouse.TableNames())
			if err != nil {
				return err
			}
			lakehouse.WriteSummary(cmd.OutOrStdout(), counts)
			return nil
		},
	}
}

func tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the lakehouse schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			tables, err := st.ListTables(ctx)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Check or download the dataset files",
	}
	cmd.AddCommand(filesCheckCmd())
	cmd.AddCommand(filesFetchCmd())
	return cmd
}

func filesDirFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVar(p, "files", "", "dataset directory (defaults to LAKEHOUSE_FILES_DIR or Files)")
}

func resolveFilesDir(dir string) string {
	if dir != "" {
		return dir
	}
	return settings.GetOr(settings.Env{}, settings.LakehouseFiles, lakehouse.DefaultFilesDir)
}

func filesCheckCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every dataset file is present and print its checksum",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := lakehouse.Inspect(resolveFilesDir(dir), lakehouse.Catalog)
			writeFiles(cmd.OutOrStdout(), files)
			return err
		},
	}
	filesDirFlag(cmd, &dir)
	return cmd
}

func filesFetchCmd() *cobra.Command {
	var dir, from string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every dataset file from a base URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return fmt.Errorf("missing --from")
			}
			files, err := lakehouse.Fetch(cmd.Context(), nil, from, resolveFilesDir(dir), lakehouse.Catalog)
			writeFiles(cmd.OutOrStdout(), files)
			return err
		},
	}
	filesDirFlag(cmd, &dir)
	cmd.Flags().StringVar(&from, "from", "", "base URL holding the dataset files")
	return cmd
}

func writeFiles(w io.Writer, files []lakehouse.SourceFile) {
	for _, f := range files {
		fmt.Fprintf(w, "%s  %9d  %s\n", f.SHA256, f.Size, f.Path)
	}
}
