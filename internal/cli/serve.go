/*
PURPOSE:
  Defines the 'serve' subcommand: runs the HTTP front end until interrupted.

REQUIREMENTS:
  User-specified:
  - Listen on 0.0.0.0:5001 by default.

  Implementation-discovered:
  - Graceful shutdown on SIGINT/SIGTERM bounded by shutdown_timeout.

ARCHITECTURE INTEGRATION:
  - Calls: internal/web.New()
  - Uses: internal/config

ERROR HANDLING:
  - Returns listen errors; a clean shutdown returns nil.

USAGE:
  wst-etc serve --port 8080 --backend remote --backend-url http://etc:8000

RELATED FILES:
  - internal/web/server.go
*/

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daryltucker/wst-etc/internal/output"
	"github.com/daryltucker/wst-etc/internal/web"
)

var (
	hostOverride       string
	portOverride       int
	backendOverride    string
	backendURLOverride string
	templateDir        string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front end",
	Example: `  # Serve with defaults (builtin backend on :5001)
  wst-etc serve

  # Forward computations to an external ETC service
  wst-etc serve --backend remote --backend-url http://etc.internal:8000

  # Use an exported, customised page template
  wst-etc template export ./site && wst-etc serve --template-dir ./site`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig("")
		if err != nil {
			return err
		}

		if hostOverride != "" {
			cfg.Host = hostOverride
		}
		if portOverride != 0 {
			cfg.Port = portOverride
		}
		if backendOverride != "" {
			cfg.Backend = backendOverride
		}
		if backendURLOverride != "" {
			cfg.BackendURL = backendURLOverride
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		calc := newCalculator(cfg)
		var srv *web.Server
		if templateDir != "" {
			srv, err = web.NewWithTemplates(calc, cfg.FormDefaults, os.DirFS(templateDir))
		} else {
			srv, err = web.New(calc, cfg.FormDefaults)
		}
		if err != nil {
			return err
		}

		httpSrv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			output.Logger.Infow("Listening", "addr", httpSrv.Addr, "backend", cfg.Backend)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			output.Logger.Infow("Shutting down", "timeout", cfg.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&hostOverride, "host", "", "Listen host (overrides config)")
	serveCmd.Flags().IntVarP(&portOverride, "port", "p", 0, "Listen port (overrides config)")
	serveCmd.Flags().StringVar(&backendOverride, "backend", "", "ETC backend: builtin or remote")
	serveCmd.Flags().StringVar(&backendURLOverride, "backend-url", "", "Base URL of the remote ETC service")
	serveCmd.Flags().StringVar(&templateDir, "template-dir", "", "Directory containing templates/index.html (default: embedded)")
}
