package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/articlesearch/internal/config"
	"github.com/kailas-cloud/articlesearch/internal/db"
	dbEmbedded "github.com/kailas-cloud/articlesearch/internal/db/embedded"
	dbRedis "github.com/kailas-cloud/articlesearch/internal/db/redis"
	"github.com/kailas-cloud/articlesearch/internal/domain"
	logpkg "github.com/kailas-cloud/articlesearch/internal/logger"
	"github.com/kailas-cloud/articlesearch/internal/metrics"
	articlerepo "github.com/kailas-cloud/articlesearch/internal/repository/article"
	"github.com/kailas-cloud/articlesearch/internal/seed"
	fastembedEmb "github.com/kailas-cloud/articlesearch/internal/transport/fastembed"
	openaiEmb "github.com/kailas-cloud/articlesearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/articlesearch/internal/usecase/embedding"
	"github.com/kailas-cloud/articlesearch/internal/usecase/indexing"
	"github.com/kailas-cloud/articlesearch/internal/version"
)

// app is the composition root shared by serve and index.
type app struct {
	env      string
	cfg      config.Config
	logger   *zap.Logger
	store    db.Store
	embedder *embeddinguc.InstrumentedEmbedder
	repo     *articlerepo.Repo
	closers  []func()
}

// closeable is implemented by embedders holding native resources.
type closeable interface {
	Close() error
}

func bootstrap(ctx context.Context) (*app, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if seedPath != "" {
		cfg.Indexing.SeedPath = seedPath
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	logger.Info("Starting articlesearch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.buildEmbedder(); err != nil {
		a.close()
		return nil, err
	}

	a.repo = articlerepo.New(a.store, articlerepo.Config{
		KeyPrefix:  cfg.Index.KeyPrefix,
		Name:       cfg.Index.Name,
		Dimensions: cfg.Embedding.Dimensions,
		HNSW: articlerepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	var (
		store db.Store
		err   error
	)
	switch a.cfg.Database.Driver {
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    a.cfg.Database.Addrs,
			Password: a.cfg.Database.Password,
		})
	case config.DriverEmbedded:
		store = dbEmbedded.NewStore()
	default:
		err = fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	timeout := time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	a.logger.Info("Connected to database", zap.String("driver", a.cfg.Database.Driver))
	return nil
}

func (a *app) buildEmbedder() error {
	ec := a.cfg.Embedding

	var base domain.Embedder
	switch ec.Provider {
	case config.ProviderFastEmbed:
		e, err := fastembedEmb.NewEmbedder(fastembedEmb.Config{
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			CacheDir:   ec.CacheDir,
			MaxLength:  ec.MaxLength,
		})
		if err != nil {
			return fmt.Errorf("create fastembed embedder: %w", err)
		}
		base = e
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
		})
	default:
		return fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}
	if c, ok := base.(closeable); ok {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}

	a.embedder = embeddinguc.NewInstrumentedEmbedder(base, ec.Provider, ec.Model, ec.Dimensions, a.logger)
	a.logger.Info("Embedder created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
	)
	return nil
}

// indexCorpus loads the seed file and rebuilds the index from it.
func (a *app) indexCorpus(ctx context.Context) (indexing.Result, error) {
	articles, err := seed.LoadFile(a.cfg.Indexing.SeedPath)
	if err != nil {
		return indexing.Result{}, fmt.Errorf("load seed: %w", err)
	}
	if len(articles) == 0 {
		return indexing.Result{}, errors.New("seed file contains no articles")
	}

	svc := indexing.New(a.repo, a.embedder, a.cfg.Indexing.Workers, a.logger)
	res, err := svc.Run(ctx, articles)
	if err != nil {
		return indexing.Result{}, fmt.Errorf("index articles: %w", err)
	}
	return res, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
