package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/deanDev5200/web-aspirasi/internal/config"
	"github.com/deanDev5200/web-aspirasi/internal/credentials"
	"github.com/deanDev5200/web-aspirasi/internal/gelf"
	"github.com/deanDev5200/web-aspirasi/internal/handler"
	"github.com/deanDev5200/web-aspirasi/internal/logger"
	"github.com/deanDev5200/web-aspirasi/internal/repository"
	"github.com/deanDev5200/web-aspirasi/internal/router"
	"github.com/deanDev5200/web-aspirasi/internal/service"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(root *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.EnvFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ASPIRASI_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Configure(cfg.LogLevel); err != nil {
		return err
	}

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		hook, err := gelf.New(cfg.GelfAddr, "aspirasi")
		if err != nil {
			logger.Warnf("GELF init failed: %v", err)
		} else {
			defer hook.Close()
			logger.AddHook(hook)
			logger.Infof("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer store.Close()
	logger.Infof("Connected to %s store", cfg.Store)

	// SQLite needs its schema before the first request, so indexes are
	// created before the listener starts.
	start := time.Now()
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Infof("Indexes ready (%s)", time.Since(start).Round(time.Millisecond))

	creds := credentials.NewStore(cfg.CredentialsFile, cfg.BcryptCost)
	if _, err := creds.Get(); err != nil {
		return err
	}

	aspSvc := service.NewAspirasiService(store, cfg.Location())
	authSvc := service.NewAuthService(creds)

	r := router.New(
		router.Options{Origins: cfg.Origins(), RequestTimeout: cfg.RequestTimeout},
		handler.NewAspirasiHandler(aspSvc),
		handler.NewAuthHandler(authSvc),
		handler.NewHealthHandler(store),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Aspirasi server starting on %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
