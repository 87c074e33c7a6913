// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"visa-pathway-workers/internal/catalog"
	"visa-pathway-workers/internal/common/camunda"
	"visa-pathway-workers/internal/common/config"
	"visa-pathway-workers/internal/common/database"
	"visa-pathway-workers/internal/common/logger"
	"visa-pathway-workers/internal/common/observability"

	rd "visa-pathway-workers/internal/workers/diagnosis/run-diagnosis"
	sdr "visa-pathway-workers/internal/workers/diagnosis/save-diagnosis-record"
	vp "visa-pathway-workers/internal/workers/diagnosis/validate-profile"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load catalog ---
	// A malformed catalog is fatal at startup. Hot swaps on SIGHUP reuse the
	// same checks and keep the previous snapshot when the new file is broken.
	initialCatalog, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("catalog load failed",
			zap.String("path", cfg.Catalog.Path),
			zap.Error(err),
		)
	}
	store := catalog.NewStore(initialCatalog)
	zapLog.Info("Catalog loaded",
		zap.String("version", initialCatalog.Version),
		zap.Int("stages", len(initialCatalog.Stages)),
		zap.Int("templates", len(initialCatalog.Templates)),
	)

	go func() {
		reloadCh := make(chan os.Signal, 1)
		signal.Notify(reloadCh, syscall.SIGHUP)
		for range reloadCh {
			if err := store.SwapFromFile(cfg.Catalog.Path); err != nil {
				zapLog.Error("catalog reload failed, keeping active snapshot", zap.Error(err))
				continue
			}
			zapLog.Info("Catalog reloaded", zap.String("version", store.Snapshot().Version))
		}
	}()

	// --- Init Zeebe Client ---
	// camunda.NewClient retries transient connection failures internally.
	zeebeClient, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Register Diagnosis Workers ---

	var workers []*camunda.Worker

	if wcfg := cfg.Workers[vp.TaskType]; wcfg.Enabled {
		handler := vp.NewHandler(
			&vp.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			store, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, vp.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(obs, handler.Handle), log,
		))
	}

	if wcfg := cfg.Workers[rd.TaskType]; wcfg.Enabled {
		handler := rd.NewHandler(
			&rd.Config{
				CacheTTL:    time.Duration(cfg.Diagnosis.CacheTTLHours) * time.Hour,
				Timeout:     time.Duration(wcfg.Timeout) * time.Millisecond,
				DefaultTopN: cfg.Diagnosis.TopNDefault,
			},
			store, redis.Client, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, rd.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(obs, handler.Handle), log,
		))
	}

	if wcfg := cfg.Workers[sdr.TaskType]; wcfg.Enabled {
		handler := sdr.NewHandler(
			&sdr.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, sdr.TaskType, wcfg.MaxJobsActive,
			time.Duration(wcfg.Timeout)*time.Millisecond, instrument(obs, handler.Handle), log,
		))
	}

	zapLog.Info("All diagnosis workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status":         "ready",
				"catalogVersion": store.Snapshot().Version,
				"time":           time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// instrument wraps a job handler with coarse per-job metrics.
func instrument(obs *observability.Observability, h camunda.JobHandler) camunda.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		h(client, job)
		obs.RecordJobProcessed(context.Background(), "processed")
		obs.RecordJobDuration(context.Background(), time.Since(start), "processed")
	}
}
