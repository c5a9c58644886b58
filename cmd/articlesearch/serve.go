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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/articlesearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/articlesearch/internal/usecase/health"
	"github.com/kailas-cloud/articlesearch/internal/usecase/retrieval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Index the seed corpus and serve the HTTP API",
	Long: `Recreate the article index from the seed file, then serve:

  POST /good-search          semantic search
  POST /bad-search           lexical search
  GET  /random-articles      random sample
  GET  /recommend-articles   similar articles by title
  GET  /health, /metrics`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.indexCorpus(ctx); err != nil {
		a.logger.Error("Indexing failed", zap.Error(err))
		return err
	}

	rc := a.cfg.Retrieval
	retrievalSvc := retrieval.New(a.repo, a.embedder, retrieval.Config{
		DefaultK:    rc.DefaultK,
		RandomCount: rc.RandomCount,
		MinimumPool: rc.MinimumPool,
		PoolLimit:   rc.PoolLimit,
	})
	healthSvc := healthuc.New(a.store, a.store, a.repo.IndexName(), a.embedder)

	server := chiTransport.NewServer(retrievalSvc, healthSvc, a.logger,
		chiTransport.WithCORSOrigins(a.cfg.HTTP.CORSOrigins))

	addr := fmt.Sprintf(":%d", a.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			a.logger.Error("HTTP server error", zap.Error(err))
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
