// cmd/assistant-manager/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"crm-assistant/internal/collaborators/brain"
	"crm-assistant/internal/collaborators/calendar"
	"crm-assistant/internal/collaborators/extract"
	"crm-assistant/internal/collaborators/leads"
	"crm-assistant/internal/common/camunda"
	"crm-assistant/internal/common/config"
	"crm-assistant/internal/common/database"
	"crm-assistant/internal/common/logger"
	"crm-assistant/internal/common/notify"
	"crm-assistant/internal/common/observability"
	"crm-assistant/internal/interpreter/orchestrator"
	"crm-assistant/internal/models"
	"crm-assistant/internal/session"

	pcc "crm-assistant/internal/workers/assistant/process-chat-command"
	pvc "crm-assistant/internal/workers/assistant/process-voice-command"
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

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assistant manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("assistant-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
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

	// --- Lead repository, with optional fuzzy search ---
	var leadRepo models.LeadRepository = leads.NewPostgresRepository(pg.GetDB())

	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		leadRepo = leads.NewSearchRepository(leadRepo, esClient.Client, cfg.Database.Elasticsearch.LeadsIndex)
		zapLog.Info("Elasticsearch connected successfully, fuzzy lead search enabled")
	}

	// --- External collaborators ---
	calendarClient := calendar.NewClient(cfg.Services.Calendar)
	extractorClient := extract.NewClient(cfg.Services.Extractor)
	brainClient := brain.NewClient(cfg.Services.GenAI)

	var notifier orchestrator.Notifier
	if cfg.Notifications.Enabled {
		escalationNotifier, err := notify.NewEscalationNotifier(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("failed to create escalation notifier", zap.Error(err))
		}
		notifier = escalationNotifier
		zapLog.Info("Support escalation notifier initialized")
	}

	store := session.NewRedisStore(redis.GetClient(), time.Duration(cfg.Interpreter.PendingTTL)*time.Second)

	interpreter := orchestrator.New(orchestrator.Dependencies{
		Leads:     leadRepo,
		Extractor: extractorClient,
		Calendar:  calendarClient,
		Planner:   brainClient,
		Notifier:  notifier,
		Recorder:  obs,
		Store:     store,
		Logger:    log,
	})

	// --- Register Workers ---
	var workers []*camunda.Worker

	pccLogAdapter := &chatCommandLoggerAdapter{log}
	pvcLogAdapter := &voiceCommandLoggerAdapter{log}

	if cfg.Workers[pcc.TaskType].Enabled {
		handler := pcc.NewHandler(
			&pcc.Config{
				Timeout: time.Duration(cfg.Workers[pcc.TaskType].Timeout) * time.Millisecond,
			},
			interpreter, pccLogAdapter,
		)
		w := camunda.NewWorker(zeebeClient, pcc.TaskType, cfg.Workers[pcc.TaskType].MaxJobsActive, handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	if cfg.Workers[pvc.TaskType].Enabled {
		handler := pvc.NewHandler(
			&pvc.Config{
				Timeout: time.Duration(cfg.Workers[pvc.TaskType].Timeout) * time.Millisecond,
			},
			interpreter, pvcLogAdapter,
		)
		w := camunda.NewWorker(zeebeClient, pvc.TaskType, cfg.Workers[pvc.TaskType].MaxJobsActive, handler, zapLog)
		w.Start()
		workers = append(workers, w)
	}

	zapLog.Info("All assistant workers registered successfully", zap.Int("count", len(workers)))

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
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Assistant manager stopped gracefully")
}

// Logger adapters for workers that declare their own Logger interfaces
type chatCommandLoggerAdapter struct {
	logger.Logger
}

func (a *chatCommandLoggerAdapter) With(fields map[string]interface{}) pcc.Logger {
	return &chatCommandLoggerAdapter{a.Logger.With(fields)}
}

type voiceCommandLoggerAdapter struct {
	logger.Logger
}

func (a *voiceCommandLoggerAdapter) With(fields map[string]interface{}) pvc.Logger {
	return &voiceCommandLoggerAdapter{a.Logger.With(fields)}
}
