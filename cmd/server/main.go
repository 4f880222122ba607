package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viral_daily/internal/config"
	"viral_daily/internal/domain"
	"viral_daily/internal/metrics"
	"viral_daily/internal/notify"
	"viral_daily/internal/scheduler"
	"viral_daily/internal/service"
	"viral_daily/internal/source"
	"viral_daily/internal/source/instagram"
	"viral_daily/internal/source/tiktok"
	"viral_daily/internal/source/twitter"
	"viral_daily/internal/source/youtube"
	"viral_daily/internal/storage/postgres"
	httptransport "viral_daily/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := postgres.Migrate(db, cfg.Database.DBName); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Notification sinks
	brokerMethods := []domain.DeliveryMethod{domain.DeliveryEmail, domain.DeliveryWhatsApp}
	if cfg.Delivery.TelegramBot == "" {
		brokerMethods = append(brokerMethods, domain.DeliveryTelegram)
	}

	rabbitMQ, err := notify.NewRabbitMQ(notify.RabbitMQConfig{
		URL:         cfg.RabbitMQ.URL,
		Exchange:    cfg.RabbitMQ.Exchange,
		QueuePrefix: cfg.RabbitMQ.QueuePrefix,
		Methods:     brokerMethods,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	router := notify.NewRouter(logger)
	for _, method := range brokerMethods {
		router.Register(method, rabbitMQ)
	}

	if cfg.Delivery.TelegramBot != "" {
		tg, err := notify.NewTelegram(cfg.Delivery.TelegramBot, logger)
		if err != nil {
			logger.Error("failed to create telegram sink", "error", err)
			os.Exit(1)
		}
		router.Register(domain.DeliveryTelegram, tg)
	}

	// Initialize stores
	videoStore := postgres.NewVideoStore(db)
	sourceStateStore := postgres.NewSourceStateStore(db)
	subscriptionStore := postgres.NewSubscriptionStore(db)
	deliveryStore := postgres.NewDeliveryStore(db)
	txManager := postgres.NewTransactionManager(db)

	// Initialize sources
	client := source.NewClient(source.ClientConfig{
		Timeout:        cfg.Sources.Timeout,
		MaxAttempts:    cfg.Sources.Retry.MaxAttempts,
		InitialBackoff: cfg.Sources.Retry.InitialBackoff,
		MaxBackoff:     cfg.Sources.Retry.MaxBackoff,
	}, logger)

	sources := []service.Source{
		youtube.New(youtube.Config{
			BaseURL:    cfg.Sources.YouTube.BaseURL,
			APIKey:     cfg.Sources.YouTube.APIKey,
			RegionCode: cfg.Sources.YouTube.RegionCode,
		}, client, logger),
		tiktok.New(tiktok.Config{
			BaseURL:     cfg.Sources.TikTok.BaseURL,
			AccessToken: cfg.Sources.TikTok.AccessToken,
		}, client, logger),
		twitter.New(twitter.Config{
			BaseURL:     cfg.Sources.Twitter.BaseURL,
			BearerToken: cfg.Sources.Twitter.BearerToken,
			Query:       cfg.Sources.Twitter.Query,
		}, client, logger),
		instagram.New(instagram.Config{
			BaseURL:     cfg.Sources.Instagram.BaseURL,
			AccessToken: cfg.Sources.Instagram.AccessToken,
			UserID:      cfg.Sources.Instagram.UserID,
			Hashtag:     cfg.Sources.Instagram.Hashtag,
		}, client, logger),
	}

	// Services
	aggregator := service.NewAggregator(sources, cfg.Sources.Timeout, m, logger)

	videoService := service.NewVideoService(aggregator, videoStore, sourceStateStore, m, logger)
	subscriptionService := service.NewSubscriptionService(subscriptionStore, logger)
	deliveryService := service.NewDeliveryService(
		aggregator,
		subscriptionStore,
		deliveryStore,
		txManager,
		router,
		service.NewDispatcher(cfg.Delivery.Workers, logger),
		m,
		logger,
		cfg.Delivery,
	)

	sched := scheduler.NewScheduler(deliveryService, scheduler.Config{
		Interval:   cfg.Delivery.Interval,
		RunOnStart: cfg.Delivery.RunOnStart,
	}, logger)

	handler := httptransport.NewHandler(videoService, subscriptionService, deliveryService, db, logger)
	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(handler, httptransport.RouterConfig{
			RPS:     cfg.HTTP.RateLimit.RPS,
			Burst:   cfg.HTTP.RateLimit.Burst,
			Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}, logger),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting viral daily server",
			"addr", cfg.HTTP.Addr,
			"platforms", aggregator.Platforms(),
			"delivery_interval", cfg.Delivery.Interval,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serverErr:
		logger.Error("http server error", "error", err)
		exitCode = 1
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down http server", "error", err)
	}

	<-schedDone

	logger.Info("waiting for in-flight deliveries")
	deliveryService.Wait()

	logger.Info("shutdown complete")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
