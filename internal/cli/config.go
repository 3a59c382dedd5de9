package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"macae/internal/integrations"
	"macae/internal/settings"
	"macae/internal/team"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect agent integration settings",
	}
	cmd.AddCommand(configCheckCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	var teamPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build the MCP, search and Fabric configs and report what is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamPath == "" {
				return checkEnv(cmd.OutOrStdout(), settings.Env{})
			}
			t, err := team.LoadFile(teamPath)
			if err != nil {
				return fmt.Errorf("%s: %w", teamPath, err)
			}
			return checkTeam(cmd.OutOrStdout(), t, settings.Env{})
		},
	}
	cmd.Flags().StringVar(&teamPath, "team", "", "team YAML file; checks only what its agents use")
	return cmd
}

// checkEnv builds both environment-sourced configs regardless of use.
func checkEnv(w io.Writer, p settings.Provider) error {
	_, mcpErr := integrations.MCPConfigFromEnv(p)
	search, searchErr := integrations.SearchConfigFromEnv(p)

	fmt.Fprintln(w, "MCPConfig:", status(mcpErr))
	fmt.Fprintln(w, "SearchConfig:", status(searchErr))
	if searchErr == nil && !search.HasAPIKey() {
		fmt.Fprintln(w, "  (no API key, credential auth)")
	}
	return errors.Join(mcpErr, searchErr)
}

func checkTeam(w io.Writer, t *team.Team, p settings.Provider) error {
	res, err := t.Resolve(p)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tMCP\tSEARCH\tFABRIC\tSTATUS")
	for i, r := range res {
		a := t.Agents[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Agent,
			cell(a.UseMCP, r.MCP != nil),
			cell(a.UseSearch, r.Search != nil),
			cell(a.UseFabric, r.Fabric != nil),
			status(r.Err()))
	}
	if ferr := tw.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func cell(used, built bool) string {
	switch {
	case !used:
		return "-"
	case built:
		return "ok"
	default:
		return "missing"
	}
}

func status(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
