package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"forest_monitor/internal/bridge"
	"forest_monitor/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/bridge.yml", "path to the bridge config file")
	flag.Parse()

	cfg, err := bridge.Load(*configPath)
	if err != nil {
		logger.New(logger.Options{}).Fatalw("error reading bridge config", "err", err)
	}
	log := logger.Get(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).Named("bridge")

	src, err := openDevice(cfg.Device)
	if err != nil {
		log.Fatalw("failed to open radio device", "err", err, "device", cfg.Device)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("bridge starting", "endpoint", cfg.Endpoint, "device", cfg.Device)
	err = bridge.New(cfg, bridge.NewLineRadio(src), log).Run(ctx)
	switch {
	case errors.Is(err, bridge.ErrRadioClosed):
		log.Infow("radio input closed")
	case err != nil:
		log.Errorw("bridge stopped", "err", err)
	}
}

// openDevice opens the receiver's line stream; "" or "-" reads standard input.
func openDevice(path string) (io.Reader, error) {
	if path == "" || path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}
