// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dealership-workers/internal/analysis"
	"dealership-workers/internal/archive"
	"dealership-workers/internal/assignment"
	"dealership-workers/internal/audit"
	awsclient "dealership-workers/internal/common/aws"
	"dealership-workers/internal/common/camunda"
	"dealership-workers/internal/common/config"
	"dealership-workers/internal/common/database"
	"dealership-workers/internal/common/logger"
	"dealership-workers/internal/common/notify"
	"dealership-workers/internal/common/observability"
	"dealership-workers/internal/leads"
	"dealership-workers/internal/models"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	obs, err := observability.New(cfg.Observability.ServiceName)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	shutdownTracing, err := observability.InitTracing(observability.TraceConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
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

	// --- Redis (round-robin cursor) ---
	var redis *database.RedisClient
	if cfg.Assignment.CursorStore == config.CursorStoreRedis {
		redis = database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch (analysis archive) ---
	var archiver archive.Archiver = archive.Nop{}
	if cfg.Archive.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		esArchive, err := archive.NewElasticsearchArchive(ctx, esClient, cfg.Archive.Index)
		if err != nil {
			zapLog.Fatal("archive index setup failed", zap.Error(err))
		}
		archiver = esArchive
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Archive.Index))
	}

	// --- Notifications ---
	notifier, closeNotifier := buildNotifier(ctx, cfg, log, zapLog)
	defer closeNotifier()

	// --- Domain services ---
	lexicon, err := analysis.LoadLexicon(cfg.Lexicon.Path)
	if err != nil {
		zapLog.Fatal("lexicon load failed", zap.Error(err))
	}
	engine := analysis.NewEngine(lexicon, cfg.Responses.DealershipName)

	auditSink := audit.NewPostgresSink(pg.DB)
	leadStore := leads.NewPostgresStore(pg.DB)
	leadService := leads.NewService(leadStore, auditSink, engine.Lead, log)

	var cursor assignment.Cursor = assignment.NewMemoryCursor()
	if redis != nil {
		cursor = assignment.NewRedisCursor(redis.Client, cfg.Assignment.CursorKeyPrefix)
	}

	// The restore hook needs the service, which needs the registry.
	var assignmentService *assignment.Service
	registry := assignment.NewRegistry(
		assignment.NewPostgresAdvisorStore(pg.DB),
		cursor,
		log,
		assignment.WithRefreshInterval(config.GetDuration(cfg.Assignment.RefreshInterval)),
		assignment.WithRestoreHook(func(tenantID string, advisor models.Advisor) {
			assignmentService.RecordRestore(tenantID, advisor)
		}),
	)
	defer registry.Close()

	assignmentService = assignment.NewService(registry, leadStore, auditSink, notifier, models.AssignmentCriteria{
		Strategy:    cfg.Assignment.DefaultStrategy,
		MaxWorkload: cfg.Assignment.DefaultMaxWorkload,
	}, log)

	// --- Workers ---
	workers := registerWorkers(zeebe.GetClient(), cfg, dependencies{
		engine:     engine,
		archiver:   archiver,
		leads:      leadService,
		assignment: assignmentService,
		obs:        obs,
	}, log)
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	checkCatalog("configs/activity-registry.json", workers, log)

	// --- Scheduled rebalance ---
	var scheduler *assignment.RebalanceScheduler
	if cfg.Assignment.RebalanceSchedule != "" && len(cfg.Assignment.RebalanceTenants) > 0 {
		scheduler, err = assignment.NewRebalanceScheduler(cfg.Assignment.RebalanceSchedule, cfg.Assignment.RebalanceTenants, assignmentService, log)
		if err != nil {
			zapLog.Fatal("rebalance scheduler", zap.Error(err))
		}
		scheduler.Start()
	}

	// --- Health & Metrics Server ---
	mux := http.DefaultServeMux
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		problems := map[string]string{}
		if err := pg.Ping(checkCtx); err != nil {
			problems["postgres"] = err.Error()
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			problems["zeebe"] = err.Error()
		}
		if redis != nil {
			if err := redis.Ping(checkCtx); err != nil {
				problems["redis"] = err.Error()
			}
		}
		if len(problems) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", problems)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Observability.HTTPAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	for _, w := range workers {
		w.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLog.Error("Error flushing traces", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping metrics provider", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildNotifier wires the enabled channels. With none enabled, advisors are
// simply not notified.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) (notify.Notifier, func()) {
	var channels []notify.Channel
	closers := []func(){}

	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Notifications.Email.Enabled {
			channels = append(channels, notify.NewEmailChannel(awsclient.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)))
		}
		if cfg.Notifications.SMS.Enabled {
			channels = append(channels, notify.NewSMSChannel(awsclient.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)))
		}
	}

	if cfg.Notifications.WhatsApp.Enabled {
		wa, err := notify.NewWhatsAppClient(ctx, cfg.Notifications.WhatsApp.SessionPath)
		if err != nil {
			zapLog.Warn("whatsapp channel disabled", zap.Error(err))
		} else {
			channels = append(channels, notify.NewWhatsAppChannel(wa))
			closers = append(closers, func() { _ = wa.Close() })
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(channels) == 0 {
		return notify.Nop{}, closeAll
	}
	multi := notify.NewMulti(log, channels...)
	zapLog.Info("Notification channels ready", zap.Strings("channels", multi.Channels()))
	return multi, closeAll
}

func writeStatus(w http.ResponseWriter, code int, status string, problems map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if len(problems) > 0 {
		body["problems"] = problems
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
