package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"macae/internal/integrations"
	"macae/internal/mcp"
	"macae/internal/settings"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server/client utilities",
	}
	cmd.AddCommand(mcpServeCmd())
	cmd.AddCommand(mcpToolsCmd())
	return cmd
}

func mcpServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP HTTP server over the lakehouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				if p := os.Getenv("PORT"); p != "" {
					addr = ":" + p
				} else {
					addr = ":8080"
				}
			}

			var lh mcp.Lakehouse
			if _, err := dsnOrErr(); err == nil {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				st, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				lh = st
			} else {
				log.Warn("no DSN configured, lakehouse tools disabled")
			}

			return serveMCP(cmd.Context(), addr, mcp.NewServer(mcp.ServerOptions{
				Name:      settings.GetOr(settings.Env{}, settings.MCPServerName, "macae"),
				Lakehouse: lh,
				Log:       log,
			}))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen addr (default :8080, or :$PORT)")
	return cmd
}

// serveMCP runs the server until ctx is cancelled.
func serveMCP(ctx context.Context, addr string, srv *mcp.Server) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/mcp", srv)

	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("listening")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func mcpToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools of the MCP server configured by MCP_SERVER_* settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := integrations.MCPConfigFromEnv(settings.Env{})
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			c := mcp.NewClient(cfg)
			info, err := c.Initialize(ctx)
			if err != nil {
				return fmt.Errorf("server %s: %w", cfg.Name, err)
			}
			tools, err := c.ToolsList(ctx)
			if err != nil {
				return fmt.Errorf("server %s: %w", cfg.Name, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s)\n", info.Name, info.Version, cfg.URL)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TOOL\tDESCRIPTION")
			for _, t := range tools {
				fmt.Fprintf(tw, "%s\t%s\n", t.Name, t.Description)
			}
			return tw.Flush()
		},
	}
	return cmd
}
