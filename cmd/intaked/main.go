package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"intake/internal/config"
	"intake/internal/daemon"
	"intake/internal/ipc"
	"intake/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configPath, exists, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, closeLogs, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.LogPath(),
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer closeLogs()

	if exists {
		logger.Info("configuration loaded", logging.String("path", configPath))
	} else {
		logger.Warn("configuration file missing, using defaults", logging.String("path", configPath))
	}

	d, err := daemon.New(cfg, logger, daemon.Options{})
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}
	defer d.Stop()

	server, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer server.Close()
	server.Serve()

	<-ctx.Done()
	logger.Info("intaked shutting down")
}
