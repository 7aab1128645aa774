package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cafe-cart/cart"
	"cafe-cart/catalog"
	"cafe-cart/handler"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	unsubscribe := a.cart.Subscribe(func(s cart.Snapshot) {
		logger.Debug("cart changed", zap.Int("lines", len(s.Lines)), zap.Int("items", s.ItemCount), zap.Int("total", s.Total))
	})
	defer unsubscribe()

	if cfg.Catalog.Watch && isLocalSource(cfg.Catalog.Source) {
		w, err := catalog.NewWatcher(cfg.Catalog.Source, a.holder, logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		logger.Info("watching menu file", zap.String("path", cfg.Catalog.Source))
	}

	r := mux.NewRouter()
	handler.NewHandler(a.svc, logger).RegisterRoutes(r)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

func isLocalSource(src string) bool {
	return src != "" && !isURL(src)
}
