package main

import (
	"context"
	"flag"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/api"
	"github.com/openidem/lockdown/pkg/audit"
	"github.com/openidem/lockdown/pkg/config"
	"github.com/openidem/lockdown/pkg/lockdown"
	"github.com/openidem/lockdown/pkg/mail"
	"github.com/openidem/lockdown/pkg/ratelimit"
	"github.com/openidem/lockdown/pkg/storage"
	"github.com/openidem/lockdown/pkg/system"
	"github.com/openidem/lockdown/pkg/telemetry"
	"github.com/openidem/lockdown/pkg/tenant"
)

func main() {
	debug := false
	configPath := ""
	flag.BoolVar(&debug, "debug", false, "enables debug mode")
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.Parse()

	log := setupLogger(debug)
	log.With("version", system.Version).Info("Starting lockdown api")

	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Error loading config for lockdown service: %v", err)
	}
	cfg.Defaults()

	if debug {
		log.Infof("%#v", cfg)
	}

	_, shutdownTracing, err := telemetry.Init(context.Background(), telemetry.Options{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "lockdown",
		ServiceVersion: system.Version,
		Exporter:       cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		Logger:         log,
	})
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}

	db, err := storage.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	sessions := storage.NewRedisSessionStore(cfg.Redis, log)

	auditSvc := audit.NewService(db.AuditEvents(), log)
	if cfg.Audit.LogSink {
		auditSvc.AddSink(audit.NewLogSink(log))
	}
	if cfg.Audit.Kafka.Enabled {
		kafkaSink, err := audit.NewKafkaSink(audit.KafkaSinkConfig{
			Brokers: cfg.Audit.Kafka.Brokers,
			Topic:   cfg.Audit.Kafka.Topic,
		}, log)
		if err != nil {
			log.Fatalf("Error creating kafka audit sink: %v", err)
		}
		auditSvc.AddSink(kafkaSink)
	}

	sender := mail.NewSender(cfg.Mail, cfg.Notifications.BrandingName, log)
	mailQueue := mail.NewQueue(sender, log, cfg.Mail.RetryCount, cfg.Mail.RetryBackoffMs, cfg.Mail.QueueSize)
	mailQueue.Start()

	policy := tenant.NewStoreProvider(db.Tenants())
	notifier := lockdown.NewNotifier(db.Users(), policy, mailQueue, cfg.Notifications.BrandingName, log)
	worker := lockdown.NewWorker(notifier, cfg.Notifications.QueueSize, log)
	worker.Start()

	executor := lockdown.NewExecutor(db.Users(), sessions, auditSvc, log)

	auth := api.NewAuth(sessions, db.Users(), log)
	server := api.NewServer(log.Desugar(), cfg, debug, auth)

	limiter := ratelimit.New(ratelimit.DefaultLockdownConfig())

	err = server.RegisterAll([]api.APIController{
		lockdown.NewController(log, db.Users(), policy, executor, worker,
			auth.Middleware(), limiter.Middleware()),
	})
	if err != nil {
		log.Fatalf("Error registering lockdown controllers: %v", err)
	}

	go server.Listen()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	limiter.Stop()
	if err := worker.Stop(shutdownCtx); err != nil {
		log.Warnf("Notification worker did not stop cleanly: %v", err)
	}
	if err := mailQueue.Stop(shutdownCtx); err != nil {
		log.Warnf("Mail queue did not stop cleanly: %v", err)
	}
	if err := auditSvc.Close(); err != nil {
		log.Warnf("Audit sinks did not close cleanly: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnf("Tracing did not shut down cleanly: %v", err)
	}
}

func setupLogger(debug bool) *zap.SugaredLogger {
	var zlog *zap.Logger
	var err error
	if debug {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return zlog.Sugar()
}
