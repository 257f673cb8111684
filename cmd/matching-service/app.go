// cmd/matching-service/app.go
package main

import (
	"context"
	"fmt"
	"time"

	"advisor-matching/internal/assignment"
	"advisor-matching/internal/common/aws"
	"advisor-matching/internal/common/config"
	"advisor-matching/internal/common/database"
	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/common/metrics"
	"advisor-matching/internal/common/observability"
	"advisor-matching/internal/matching"
	"advisor-matching/internal/matching/engine"
	"advisor-matching/internal/storage"
	"advisor-matching/pkg/registry"
)

// needs selects which backing services a command connects to. Postgres is always required.
type needs struct {
	redis  bool
	search bool
	events bool
}

// application holds the wired components shared by the commands.
type application struct {
	cfg      *config.Config
	log      logger.Logger
	pg       *database.PostgresClient
	redis    *database.RedisClient
	obs      *observability.Observability
	registry *registry.ActivityRegistry

	results     *storage.ResultStore
	runs        *storage.RunTracker
	engine      *engine.Engine
	assignments *assignment.Materializer

	closers []func()
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// buildAlgorithm turns the matching config into a validated scoring configuration.
func buildAlgorithm(cfg config.MatchingConfig) (matching.Algorithm, error) {
	alg := matching.Algorithm{
		Version: cfg.AlgorithmVersion,
		Weights: matching.Weights{
			Sector:       cfg.Weights.Sector,
			Timezone:     cfg.Weights.Timezone,
			Stage:        cfg.Weights.Stage,
			Availability: cfg.Weights.Availability,
			Experience:   cfg.Weights.Experience,
		},
		FailurePolicy: matching.FailurePolicy(cfg.FailurePolicy),
	}
	if alg.Version == "" {
		alg.Version = matching.DefaultAlgorithmVersion
	}
	if cfg.Weights.IsZero() {
		alg.Weights = matching.DefaultWeights()
	}
	if alg.FailurePolicy == "" {
		alg.FailurePolicy = matching.FailOpen
	}
	if err := alg.Validate(); err != nil {
		return matching.Algorithm{}, err
	}
	return alg, nil
}

func connectPostgres(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)
	return pg, nil
}

// bootstrap connects the backing services and builds the engine and the materializer.
func bootstrap(ctx context.Context, cfg *config.Config, log logger.Logger, n needs) (*application, error) {
	a := &application{cfg: cfg, log: log}

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load activity registry: %w", err)
	}
	a.registry = reg

	a.obs = observability.New(cfg.App.Name)
	a.closers = append(a.closers, a.obs.Shutdown)
	if cfg.Tracing.Enabled {
		if err := a.obs.EnableTracing(cfg.Tracing.JaegerEndpoint); err != nil {
			log.Warn("Tracing disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	pg, err := connectPostgres(ctx, cfg.Database.Postgres, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.pg = pg
	a.closers = append(a.closers, func() { pg.Close() })

	opts := []engine.Option{engine.WithObservability(a.obs)}

	if n.redis {
		err = retryWithBackoff(func() error {
			var err error
			a.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return a.redis.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			a.Close()
			return nil, err
		}
		rc := a.redis
		a.closers = append(a.closers, func() { rc.Close() })
		log.Info("Redis connected successfully", nil)

		ttl := time.Duration(cfg.Database.Redis.RunTTL) * time.Second
		a.runs = storage.NewRunTracker(a.redis.Client, cfg.Database.Redis.KeyPrefix, ttl)
		opts = append(opts, engine.WithRunTracker(a.runs))
	}

	if n.search && cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
		opts = append(opts, engine.WithIndexer(storage.NewMatchIndexer(es.Client, cfg.Database.Elasticsearch.MatchIndex)))
	}

	alg, err := buildAlgorithm(cfg.Matching)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}
	aggregator, err := matching.NewAggregator(alg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	aggregator.OnFallback = func(string, string, error) {
		metrics.ScoringFallbacks.Inc()
	}

	a.results = storage.NewResultStore(pg.DB)
	a.engine = engine.New(
		&engine.Config{
			TopN:             cfg.Matching.TopN,
			BatchConcurrency: cfg.Matching.BatchConcurrency,
			UpsertTimeout:    config.GetDuration(cfg.Matching.UpsertTimeout),
		},
		matching.NewRanker(aggregator, log),
		storage.NewProfileStore(pg.DB),
		a.results,
		log,
		opts...,
	)

	var publisher assignment.EventPublisher
	if n.events && cfg.Notifications.SNS.Enabled {
		p, err := aws.NewSNSEventPublisher(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN)
		if err != nil {
			a.Close()
			return nil, err
		}
		publisher = p
	}
	a.assignments = assignment.NewMaterializer(pg.DB, a.results, a.engine, publisher, log)

	log.Info("Matching engine ready", map[string]interface{}{
		"algorithmVersion": alg.Version,
		"failurePolicy":    string(alg.FailurePolicy),
		"topN":             cfg.Matching.TopN,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
