package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Recreate the article index from the seed file and exit",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.indexCorpus(ctx)
	if err != nil {
		a.logger.Error("Indexing failed", zap.Error(err))
		return err
	}
	a.logger.Info("Index rebuilt",
		zap.String("index", a.repo.IndexName()),
		zap.Int("articles", len(res.IDs)),
		zap.Duration("duration", res.Duration),
	)
	return nil
}
