package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/api"
	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/config"
	"github.com/evade6ix/gundamwebsite/internal/logging"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	hc := util.NewHTTPClient(cfg.HTTPTimeout)
	catalog, err := newCatalog(cfg, hc, logger)
	if err != nil {
		return err
	}

	if cfg.LogJSON {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandlers(api.Options{
		Catalog:      catalog,
		APIURL:       cfg.APIURL,
		PublicOrigin: cfg.PublicOrigin,
		HTTP:         hc,
		Concurrency:  cfg.EnrichConcurrency,
		Logger:       logger,
	}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCatalog serves the catalog from CSV files when a data dir is set and
// from the catalog service otherwise.
func newCatalog(cfg config.Config, hc *http.Client, logger *zap.Logger) (cards.Catalog, error) {
	if cfg.CatalogDataDir == "" {
		return cards.NewClient(cfg.CatalogURL, hc, logger), nil
	}
	all, err := cards.LoadCardsFromDataDir(cfg.CatalogDataDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", cfg.CatalogDataDir, err)
	}
	logger.Info("catalog loaded from csv", zap.String("dir", cfg.CatalogDataDir), zap.Int("cards", len(all)))
	return cards.NewMemoryCatalog(all), nil
}
