// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"deal-workers/internal/aggregation"
	"deal-workers/internal/common/aws"
	"deal-workers/internal/common/camunda"
	"deal-workers/internal/common/config"
	"deal-workers/internal/common/database"
	"deal-workers/internal/common/logger"
	"deal-workers/internal/common/observability"
	"deal-workers/internal/lifecycle"
	"deal-workers/internal/repository"

	// Set workers
	convertset "deal-workers/internal/workers/sets/convert-set"
	transitionset "deal-workers/internal/workers/sets/transition-set"

	// Project workers
	updatemilestones "deal-workers/internal/workers/projects/update-milestones"
	updateprojectstatus "deal-workers/internal/workers/projects/update-project-status"

	// Seller workers
	assignpaytype "deal-workers/internal/workers/sellers/assign-pay-type"

	// Report workers
	companystats "deal-workers/internal/workers/reports/company-stats"
	sellersummary "deal-workers/internal/workers/reports/seller-summary"
	teamsummary "deal-workers/internal/workers/reports/team-summary"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// registration binds a task type to the config key and handler builder of
// one worker package.
type registration struct {
	taskType  string
	configKey string
	build     func() (camunda.JobHandler, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("storageBackend", cfg.Storage.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis: summary cache, and record store when backend is redis ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Record gateway ---
	var gateway repository.Gateway
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
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
		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
		gateway = repository.NewPostgresGateway(pg.DB)
	default:
		gateway = repository.NewRedisGateway(redisClient.Client, cfg.Storage.KeyPrefix)
	}

	cache := repository.NewSummaryCache(redisClient.Client, cfg.Storage.KeyPrefix, config.GetDuration(cfg.Storage.CacheTTL))
	store := repository.NewStore(gateway,
		repository.WithCleaner(cache),
		repository.WithLogger(log.WithFields(map[string]interface{}{"component": "store"})),
	)

	// --- Deal events ---
	var publisher lifecycle.Publisher
	if sns := cfg.Notifications.SNS; sns.Enabled {
		client, err := aws.NewSNSClient(ctx, sns.Region, sns.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = client
		zapLog.Info("Deal events publishing to SNS", zap.String("topicArn", sns.TopicARN))
	}

	engine, err := lifecycle.NewEngine(lifecycle.EngineOptions{
		Store:       store,
		Invalidator: cache,
		Publisher:   publisher,
		Logger:      log.WithFields(map[string]interface{}{"component": "lifecycle"}),
	})
	if err != nil {
		zapLog.Fatal("lifecycle engine failed", zap.Error(err))
	}

	reports, err := aggregation.NewService(aggregation.ServiceOptions{
		Store:  store,
		Cache:  cache,
		Logger: log.WithFields(map[string]interface{}{"component": "aggregation"}),
	})
	if err != nil {
		zapLog.Fatal("report service failed", zap.Error(err))
	}

	// --- Workers ---
	registrations := []registration{
		{transitionset.TaskType, transitionset.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := transitionset.NewHandler(transitionset.HandlerOptions{AppConfig: cfg, Engine: engine, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{convertset.TaskType, convertset.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := convertset.NewHandler(convertset.HandlerOptions{AppConfig: cfg, Engine: engine, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{updateprojectstatus.TaskType, updateprojectstatus.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := updateprojectstatus.NewHandler(updateprojectstatus.HandlerOptions{AppConfig: cfg, Engine: engine, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{updatemilestones.TaskType, updatemilestones.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := updatemilestones.NewHandler(updatemilestones.HandlerOptions{AppConfig: cfg, Engine: engine, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{assignpaytype.TaskType, assignpaytype.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := assignpaytype.NewHandler(assignpaytype.HandlerOptions{AppConfig: cfg, Engine: engine, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{sellersummary.TaskType, sellersummary.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := sellersummary.NewHandler(sellersummary.HandlerOptions{AppConfig: cfg, Service: reports, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{teamsummary.TaskType, teamsummary.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := teamsummary.NewHandler(teamsummary.HandlerOptions{AppConfig: cfg, Service: reports, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
		{companystats.TaskType, companystats.ConfigKey, func() (camunda.JobHandler, error) {
			h, err := companystats.NewHandler(companystats.HandlerOptions{AppConfig: cfg, Service: reports, Logger: log})
			if err != nil {
				return nil, err
			}
			return h.Handle, nil
		}},
	}

	runner := camunda.NewRunner(zeebe.GetClient(), obs, zapLog)
	for _, reg := range registrations {
		if !config.IsWorkerEnabled(cfg, reg.configKey) {
			zapLog.Info("worker disabled", zap.String("taskType", reg.taskType))
			continue
		}
		handle, err := reg.build()
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", reg.taskType), zap.Error(err))
		}
		runner.Start(reg.taskType, config.GetWorkerConfig(cfg, reg.configKey), handle)
	}
	zapLog.Info("Workers registered", zap.Strings("taskTypes", runner.Running()))

	// --- Health / metrics ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zapLog.Info("Shutting down worker manager...", zap.String("signal", sig.String()))

	runner.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("Health/Metrics server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
