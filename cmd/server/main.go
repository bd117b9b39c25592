package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ramzan/internal/config"
	"ramzan/internal/logger"
	"ramzan/internal/serverapp"
)

func main() {
	configPath := flag.String("config", "", "path to ramzan.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewDefault()
	if err := run(ctx, *configPath, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, log *logger.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	log = logger.New(os.Stderr, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	store, closeStore, err := serverapp.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	handler, err := serverapp.NewHandler(ctx, serverapp.Options{
		Config: cfg,
		Store:  store,
		Logger: log,
	})
	if err != nil {
		return err
	}
	return serverapp.ListenAndServe(ctx, cfg.Server.Addr, handler, log)
}
