package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "form4qa/internal/http"
	"form4qa/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.close()
			if addr != "" {
				a.cfg.HTTP.Addr = addr
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR or :8080)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	metrics := httpapi.NewMetrics()
	router := httpapi.NewRouter(a.logger)
	router.RegisterProjectRoutes(httpapi.NewProjectHandler(a.svc, metrics, a.cfg.HTTP.MaxUploadBytes, a.logger))
	router.RegisterOpsRoutes(metrics)

	srv := service.NewServer(a.cfg.HTTP.Addr, router, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-sigCh:
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error("HTTP server failed", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
