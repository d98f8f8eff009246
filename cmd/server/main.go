package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"forest_monitor/internal/config"
	"forest_monitor/internal/consumer"
	"forest_monitor/internal/handlers"
	"forest_monitor/internal/logger"
	"forest_monitor/internal/metrics"
	"forest_monitor/internal/notifier"
	"forest_monitor/internal/repository"
	"forest_monitor/internal/repository/db"
	"forest_monitor/internal/server"
	"forest_monitor/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the server config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.Options{}).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		log.Fatalw("failed to register metrics", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := service.Options{
		Bindings:      cfg.Sensors,
		Thresholds:    cfg.ThresholdTable(),
		HistorySize:   cfg.History.Capacity,
		AdmitInterval: cfg.History.AdmitInterval,
		SigningKey:    cfg.Auth.SigningKey,
		TokenTTL:      cfg.Auth.TokenTTL,
		Observer:      recorder,
		Logger:        log,
	}
	if cfg.Notifier.SlackWebhookURL != "" {
		slack, err := notifier.NewSlackNotifier(cfg.Notifier.SlackWebhookURL, cfg.Notifier.SlackChannel,
			cfg.Notifier.Cooldown, recorder, log.Named("notifier"))
		if err != nil {
			log.Fatalw("failed to init slack notifier", "err", err)
		}
		go slack.Run(ctx)
		opts.Notifier = slack
	}

	services, err := service.NewService(repository.NewRepository(conn), opts)
	if err != nil {
		log.Fatalw("failed to build services", "err", err)
	}

	if cfg.Redpanda.Enabled {
		rp, err := consumer.NewRedpandaConsumer(ctx, cfg.Redpanda.Brokers, cfg.Redpanda.Topic,
			cfg.Redpanda.Group, services, log.Named("consumer"))
		if err != nil {
			log.Fatalw("failed to connect to redpanda", "err", err, "brokers", cfg.Redpanda.Brokers)
		}
		defer rp.Close()
		go func() {
			if err := rp.Start(ctx); err != nil {
				log.Errorw("consumer stopped", "err", err)
			}
		}()
	}

	apiHandler := handlers.NewHandler(services, log.Named("http"),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &server.Server{}
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := srv.Run(cfg.Port, apiHandler.InitRoutes()); err != nil {
			log.Errorw("error running server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
