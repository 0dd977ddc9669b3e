package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/config"
	"github.com/satmarket/satmarket-api/internal/domain/dispute"
	"github.com/satmarket/satmarket-api/internal/domain/escrow"
	"github.com/satmarket/satmarket-api/internal/domain/wallet"
	"github.com/satmarket/satmarket-api/internal/pkg/database"
	"github.com/satmarket/satmarket-api/internal/pkg/logger"
)

// Standalone sweep process: runs the escrow auto-release and dispute
// deadline workers without the HTTP surface. Deploy either this or the
// in-process workers in cmd/api, not both, unless Redis is configured
// so the release lease dedupes the ticks.
func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting satmarket sweeper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	walletRepo := wallet.NewRepository(db)
	escrowService := escrow.NewService(escrow.NewRepository(db, walletRepo))
	disputeRepo := dispute.NewRepository(db)

	releaseWorker := escrow.NewWorker(escrowService, redisClient, cfg.AutoReleaseInterval)
	releaseWorker.Start()
	defer releaseWorker.Stop()

	disputeWorker := dispute.NewWorker(disputeRepo, cfg.DisputeSweepInterval)
	disputeWorker.Start()
	defer disputeWorker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Sweeper shutting down")
}
