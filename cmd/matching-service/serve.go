// cmd/matching-service/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"advisor-matching/internal/api"
	"advisor-matching/internal/common/camunda"
	"advisor-matching/internal/common/config"
	"advisor-matching/internal/common/logger"
	"advisor-matching/internal/scheduler"
	"advisor-matching/internal/storage"

	cam "advisor-matching/internal/workers/matching/calculate-advisor-matches"
	caa "advisor-matching/internal/workers/matching/create-advisor-assignment"

	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Zeebe job workers and the batch scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, newLogger(cfg))
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	log.Info("Starting matching service...", map[string]interface{}{"environment": cfg.App.Environment})

	a, err := bootstrap(ctx, cfg, log, needs{redis: true, search: true, events: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if migrateOnStart {
		if err := storage.RunMigrations(ctx, a.pg.DB, log); err != nil {
			return err
		}
	}

	workers, closeZeebe, err := startWorkers(cfg, a, log)
	if err != nil {
		return err
	}
	defer closeZeebe()

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler.Timezone, a.engine, log)
		if err != nil {
			return err
		}
		if err := sched.Schedule(cfg.Scheduler.Cron); err != nil {
			return err
		}
		sched.Start()
	}

	server := api.NewServer(cfg.HTTP, api.Deps{
		Engine:      a.engine,
		Matches:     a.results,
		Assignments: a.assignments,
		Runs:        a.runs,
		Registry:    a.registry,
		Checks: []api.Check{
			{Name: "postgres", Ping: a.pg.Ping},
			{Name: "redis", Ping: a.redis.Ping},
		},
		DefaultTopN: cfg.Matching.TopN,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", map[string]interface{}{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Matching service stopped", nil)
	return nil
}

// startWorkers opens the Zeebe job workers. With Camunda disabled it returns no workers.
func startWorkers(cfg *config.Config, a *application, log logger.Logger) ([]*camunda.CamundaWorker, func(), error) {
	noop := func() {}
	if !cfg.Camunda.Enabled {
		log.Info("Camunda disabled, job workers not started", nil)
		return nil, noop, nil
	}

	var client *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return nil, noop, fmt.Errorf("zeebe client failed after retries: %w", err)
	}
	log.Info("Zeebe client connected successfully", nil)

	var workers []*camunda.CamundaWorker
	open := func(taskType string, handler camunda.JobHandler, maxJobs int, timeout time.Duration) {
		if maxJobs == 0 {
			maxJobs = cfg.Camunda.MaxJobsActive
		}
		w := camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: maxJobs,
			Timeout:       timeout,
		}, handler, log)
		w.Start()
		workers = append(workers, w)
	}

	if config.IsWorkerEnabled(cfg, cam.TaskType) {
		wc := config.GetWorkerConfig(cfg, cam.TaskType)
		hc := cam.LoadConfig(wc)
		open(cam.TaskType, cam.NewHandler(hc, a.engine, a.registry, log), wc.MaxJobsActive, hc.Timeout)
	}
	if config.IsWorkerEnabled(cfg, caa.TaskType) {
		wc := config.GetWorkerConfig(cfg, caa.TaskType)
		hc := caa.LoadConfig(wc)
		open(caa.TaskType, caa.NewHandler(hc, a.assignments, a.registry, log), wc.MaxJobsActive, hc.Timeout)
	}

	log.Info("Job workers started", map[string]interface{}{"count": len(workers)})
	return workers, func() { client.Close() }, nil
}
