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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"adoption-review/internal/adoption/audit"
	"adoption-review/internal/adoption/notify"
	"adoption-review/internal/adoption/service"
	"adoption-review/internal/adoption/storage"
	"adoption-review/internal/adoption/store"
	awsclient "adoption-review/internal/common/aws"
	"adoption-review/internal/common/camunda"
	"adoption-review/internal/common/config"
	"adoption-review/internal/common/database"
	"adoption-review/internal/common/logger"
	"adoption-review/internal/common/metrics"
	"adoption-review/internal/common/observability"
	"adoption-review/pkg/registry"

	cd "adoption-review/internal/workers/application/create-draft"
	sa "adoption-review/internal/workers/application/submit-application"
	ud "adoption-review/internal/workers/application/upload-document"
	wa "adoption-review/internal/workers/application/withdraw-application"

	be "adoption-review/internal/workers/review/begin-evaluation"
	chv "adoption-review/internal/workers/review/complete-home-visit"
	fd "adoption-review/internal/workers/review/final-decision"
	rd "adoption-review/internal/workers/review/request-documents"
	shv "adoption-review/internal/workers/review/schedule-home-visit"
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

// registration binds a task type to the handler serving it.
type registration struct {
	taskType string
	handler  func(wc config.WorkerConfig) camunda.JobHandler
}

func registrations(svc *service.Service, log logger.Logger) []registration {
	return []registration{
		{cd.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return cd.NewHandler(cd.LoadConfig(wc), svc, log).Handle
		}},
		{sa.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return sa.NewHandler(sa.LoadConfig(wc), svc, log).Handle
		}},
		{wa.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return wa.NewHandler(wa.LoadConfig(wc), svc, log).Handle
		}},
		{ud.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return ud.NewHandler(ud.LoadConfig(wc), svc, log).Handle
		}},
		{rd.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return rd.NewHandler(rd.LoadConfig(wc), svc, log).Handle
		}},
		{shv.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return shv.NewHandler(shv.LoadConfig(wc), svc, log).Handle
		}},
		{chv.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return chv.NewHandler(chv.LoadConfig(wc), svc, log).Handle
		}},
		{be.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return be.NewHandler(be.LoadConfig(wc), svc, log).Handle
		}},
		{fd.TaskType, func(wc config.WorkerConfig) camunda.JobHandler {
			return fd.NewHandler(fd.LoadConfig(wc), svc, log).Handle
		}},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting adoption review workers...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	reg, err := registry.Default()
	if err == nil {
		err = reg.Validate()
	}
	if err != nil {
		zapLog.Fatal("activity registry is invalid", zap.Error(err))
	}

	ctx := context.Background()
	m := metrics.New(prometheus.DefaultRegisterer)
	obs := observability.New(cfg.App.Name, log)

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
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

	applications := store.NewPostgres(pg.DB)
	if cfg.Database.Postgres.AutoMigrate {
		if err := applications.Migrate(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Elasticsearch audit export ---
	var indexer service.AuditIndexer
	if cfg.Audit.IndexEnabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = audit.NewIndexer(es.Client, cfg.Audit.IndexName, m)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- AWS: S3 documents, SES email, SNS text messages ---
	storageCfg, err := awsclient.LoadConfig(ctx, cfg.Storage.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	s3Client, presigner := awsclient.NewS3Clients(storageCfg, awsclient.S3Options{
		Endpoint:     cfg.Storage.Endpoint,
		UsePathStyle: cfg.Storage.UsePathStyle,
	})
	files := storage.NewS3Storage(s3Client, presigner, rdb.Client, storage.Config{
		Bucket:      cfg.Storage.Bucket,
		CachePrefix: cfg.Storage.CacheKeyPrefix,
		DefaultTTL:  cfg.Storage.URLTTL(),
	}, log)

	notifyCfg := storageCfg
	if cfg.Notifications.AWS.Region != "" && cfg.Notifications.AWS.Region != cfg.Storage.Region {
		if notifyCfg, err = awsclient.LoadConfig(ctx, cfg.Notifications.AWS.Region); err != nil {
			zapLog.Fatal("aws notification config failed", zap.Error(err))
		}
	}
	opts := []notify.Option{
		notify.WithContacts(notify.NewPostgresContacts(pg.DB)),
		notify.WithDedupe(rdb.Client),
	}
	if cfg.Notifications.Email.Enabled {
		opts = append(opts, notify.WithEmail(awsclient.NewSESClient(notifyCfg, cfg.Notifications.Email.FromEmail)))
	}
	if cfg.Notifications.SMS.Enabled {
		opts = append(opts, notify.WithSMS(awsclient.NewSNSClient(notifyCfg, cfg.Notifications.SMS.SenderID)))
	}
	dispatcher := notify.NewDispatcher(pg.DB, notify.Config{
		DedupeTTL: time.Duration(cfg.Notifications.DedupeTTL) * time.Second,
		LinkBase:  cfg.Notifications.LinkBase,
	}, log, m, opts...)

	svc, err := service.New(service.Deps{
		Store:         applications,
		Notifier:      dispatcher,
		Files:         files,
		Indexer:       indexer,
		Logger:        log,
		Metrics:       m,
		Observability: obs,
	})
	if err != nil {
		zapLog.Fatal("service init failed", zap.Error(err))
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	for _, r := range registrations(svc, log) {
		if !config.IsWorkerEnabled(cfg, r.taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", r.taskType))
			continue
		}
		wc := config.GetWorkerConfig(cfg, r.taskType)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      r.taskType,
			Config:        wc,
			Handler:       r.handler(wc),
			Logger:        log,
			Metrics:       m,
			Observability: obs,
		}))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"zeebe": "ok", "postgres": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"], status = err.Error(), http.StatusServiceUnavailable
		}
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"], status = err.Error(), http.StatusServiceUnavailable
		}
		if err := rdb.Ping(checkCtx); err != nil {
			checks["redis"], status = err.Error(), http.StatusServiceUnavailable
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
