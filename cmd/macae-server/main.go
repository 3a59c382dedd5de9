package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"macae/internal/logging"
	"macae/internal/mcp"
	"macae/internal/settings"
	"macae/internal/store"
)

// macae-server is the stateless HTTP entrypoint.
//
// Endpoints:
// - GET  /healthz
// - POST /mcp   (minimal JSON-RPC handler)
//
// Lakehouse tools are served when DATABASE_URL is provided.
func main() {
	var addr, envFile string
	flag.StringVar(&addr, "addr", "", "listen address (default :$PORT or :8080)")
	flag.StringVar(&envFile, "env-file", "", "dotenv file to load (default .env when present)")
	flag.Parse()

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := settings.LoadEnvFiles(files...); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	env := settings.Env{}
	log, err := logging.New(settings.GetOr(env, settings.LogLevel, "info"), settings.GetOr(env, settings.LogFormat, "json"), os.Stderr)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	if addr == "" {
		addr = ":" + settings.GetOr(env, "PORT", "8080")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := mcp.ServerOptions{Name: settings.GetOr(env, settings.MCPServerName, "macae"), Log: log}
	if dsn := env.Get(settings.DatabaseURL); dsn != "" {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		st, err := store.Open(openCtx, dsn)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("db connect")
		}
		defer st.Close()
		opts.Lakehouse = st
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/mcp", mcp.NewServer(opts))

	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("listening")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("serve")
		os.Exit(1)
	}
}
