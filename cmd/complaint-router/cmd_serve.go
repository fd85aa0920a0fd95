package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/complaint-router/internal/api"
	"github.com/ajitpratap0/complaint-router/internal/lifecycle"
	"github.com/ajitpratap0/complaint-router/internal/scheduler"
)

func serveCmd() *cobra.Command {
	var noSweep bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server and the scheduled SLA sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), "serve")
			if err != nil {
				return err
			}
			defer a.Close()
			logger := a.logger

			srv := api.NewServer(a.classifier, a.complaints, a.departments, a.reporter, logger, cfg.API.AuthToken)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set COMPLAINT_ROUTER_API_AUTH_TOKEN or cfg.api.auth_token for production use")
			}

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			g, gctx := errgroup.WithContext(cmd.Context())

			if !noSweep {
				lm := lifecycle.NewManager(a.store, logger)
				stop, err := scheduler.Start(gctx, cfg.SLA.SweepSchedule, func(ctx context.Context) {
					report, err := lm.Run(ctx, time.Now().UTC(), false)
					if err != nil {
						logger.Error("sla sweep failed", "error", err)
						return
					}
					logger.Info("sla sweep finished",
						"checked", report.Checked,
						"warnings", report.Warnings,
						"breaches", report.Breaches,
						"escalated", report.Escalated,
						"notified", report.Notified,
					)
				}, logger)
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				defer stop()
			}

			g.Go(func() error {
				logger.Info("HTTP API server starting", "addr", cfg.API.ListenAddr)
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
					return fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				const shutdownTimeout = 10 * time.Second
				if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil {
					return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
				}
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not run the scheduled SLA sweep")
	return cmd
}
