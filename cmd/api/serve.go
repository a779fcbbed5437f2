package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pawtastic/internal/app"
	"pawtastic/internal/platform/config"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/router"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el app shell HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := app.NewBackends(cfg, log)
			if err != nil {
				return err
			}
			a, err := app.New(b, log)
			if err != nil {
				_ = b.Close()
				return err
			}
			if err := a.Start(ctx); err != nil {
				_ = a.Shutdown(context.Background())
				return err
			}

			srv := newHTTPServer(cfg, a, log)

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting server", map[string]any{"addr": cfg.Addr()})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server error", map[string]any{"err": err})
					_ = a.Shutdown(context.Background())
					return err
				}
			case <-ctx.Done():
			}

			log.Info("shutting down", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown", map[string]any{"err": err})
			}
			return a.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("port", "", "puerto HTTP (default 8080)")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func newHTTPServer(cfg config.Config, a *app.App, log logger.Logger) *http.Server {
	// Validate ya resolvió la zona.
	loc, _ := cfg.Location()

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(router.Options{App: a, Log: log, Location: loc}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
