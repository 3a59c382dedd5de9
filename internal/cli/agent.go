package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"macae/internal/integrations"
	"macae/internal/team"
)

func agentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent team utilities",
	}
	cmd.AddCommand(agentListCmd())
	cmd.AddCommand(agentFabricURLCmd())
	return cmd
}

func agentListCmd() *cobra.Command {
	var teamPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Validate a team file and print its agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamPath == "" {
				return fmt.Errorf("missing --team")
			}
			t, err := team.LoadFile(teamPath)
			if err != nil {
				return err
			}
			b, _ := json.MarshalIndent(t, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&teamPath, "team", "", "path to team YAML file")
	return cmd
}

func agentFabricURLCmd() *cobra.Command {
	var teamPath, agentName string
	cmd := &cobra.Command{
		Use:   "fabric-url",
		Short: "Print the Fabric data agent endpoint of one agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if teamPath == "" || agentName == "" {
				return fmt.Errorf("missing required: --team --agent")
			}
			t, err := team.LoadFile(teamPath)
			if err != nil {
				return err
			}
			a, ok := t.Agent(agentName)
			if !ok {
				return fmt.Errorf("agent %q not found in %s", agentName, teamPath)
			}
			cfg, err := integrations.FabricConfigFromAgent(a.FabricSource())
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("agent %q does not use Fabric", agentName)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.FullEndpointURL())
			return nil
		},
	}
	cmd.Flags().StringVar(&teamPath, "team", "", "path to team YAML file")
	cmd.Flags().StringVar(&agentName, "agent", "", "agent name")
	return cmd
}
