package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/himanishpuri/SongDNA/internal/config"
	"github.com/himanishpuri/SongDNA/pkg/logger"
	"github.com/himanishpuri/SongDNA/pkg/songdna"
	"github.com/himanishpuri/SongDNA/pkg/utils"
)

func main() {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(lvl)
	}

	service, err := songdna.NewService(cfg.ServiceOptions()...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	if err := utils.MakeDir(cfg.UploadDir); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(service, &ServerConfig{
		Port:           cfg.Port,
		DBPath:         cfg.DBPath,
		UploadDir:      cfg.UploadDir,
		Threshold:      cfg.Match.Threshold,
		MaxResults:     cfg.Match.MaxResults,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	sweepLog := log.Named("sweeper").With("dir", cfg.UploadDir)
	sweepUploads(cfg.UploadDir, uploadMaxAge, time.Now(), sweepLog)
	go runUploadSweeper(ctx, cfg.UploadDir, sweepInterval, sweepLog)

	if err := server.Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		service.Close()
		os.Exit(1)
	}
}
