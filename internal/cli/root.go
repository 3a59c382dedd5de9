package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"macae/internal/logging"
	"macae/internal/settings"
	"macae/internal/store"
)

type rootFlags struct {
	DSN       string
	EnvFiles  []string
	LogLevel  string
	LogFormat string
}

var (
	rf  rootFlags
	log = logging.Discard()
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "macae",
		Short:        "Retail lakehouse loader and agent integration settings",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.LoadEnvFiles(rf.EnvFiles...); err != nil {
				return err
			}
			env := settings.Env{}
			if rf.LogLevel == "" {
				rf.LogLevel = settings.GetOr(env, settings.LogLevel, "info")
			}
			if rf.LogFormat == "" {
				rf.LogFormat = settings.GetOr(env, settings.LogFormat, "text")
			}
			l, err := logging.New(rf.LogLevel, rf.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			log = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&rf.DSN, "dsn", os.Getenv(settings.DatabaseURL), "PostgreSQL DSN (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().StringSliceVar(&rf.EnvFiles, "env-file", nil, "dotenv file(s) to load (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&rf.LogLevel, "log-level", "", "log level (defaults to LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&rf.LogFormat, "log-format", "", "log format: text|json (defaults to LOG_FORMAT or text)")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(tablesCmd())
	rootCmd.AddCommand(filesCmd())
	rootCmd.AddCommand(dbCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(mcpCmd())

	return rootCmd
}

// dsnOrErr resolves the DSN after env files are loaded, so DATABASE_URL from
// a dotenv file is honoured too.
func dsnOrErr() (string, error) {
	if rf.DSN == "" {
		rf.DSN = settings.Env{}.Get(settings.DatabaseURL)
	}
	if rf.DSN == "" {
		return "", fmt.Errorf("missing --dsn (or set DATABASE_URL)")
	}
	return rf.DSN, nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	dsn, err := dsnOrErr()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, dsn)
}
