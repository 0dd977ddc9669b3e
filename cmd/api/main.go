package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/config"
	"github.com/satmarket/satmarket-api/internal/domain/checkout"
	"github.com/satmarket/satmarket-api/internal/domain/dispute"
	"github.com/satmarket/satmarket-api/internal/domain/escrow"
	"github.com/satmarket/satmarket-api/internal/domain/listing"
	"github.com/satmarket/satmarket-api/internal/domain/order"
	"github.com/satmarket/satmarket-api/internal/domain/seller"
	"github.com/satmarket/satmarket-api/internal/domain/user"
	"github.com/satmarket/satmarket-api/internal/domain/wallet"
	"github.com/satmarket/satmarket-api/internal/middleware"
	"github.com/satmarket/satmarket-api/internal/pkg/cashu"
	"github.com/satmarket/satmarket-api/internal/pkg/database"
	"github.com/satmarket/satmarket-api/internal/pkg/jwt"
	"github.com/satmarket/satmarket-api/internal/pkg/logger"
	pkgresponse "github.com/satmarket/satmarket-api/internal/pkg/response"
	"github.com/satmarket/satmarket-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting satmarket API")

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

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	mint := cashu.NewClient(cashu.Config{
		GatewayURL: cfg.MintGatewayURL,
		Timeout:    cfg.MintGatewayTimeout,
	})

	var store storage.Storage
	if cfg.S3AccessKey != "" {
		store, err = storage.NewS3Storage(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
	} else {
		store, err = storage.NewLocalStorage(cfg.StoragePath, cfg.StorageURL)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create evidence storage")
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	listingRepo := listing.NewRepository(db)
	escrowRepo := escrow.NewRepository(db, walletRepo)
	orderRepo := order.NewRepository(db)
	disputeRepo := dispute.NewRepository(db)
	checkoutRepo := checkout.NewRepository(db)
	sellerRepo := seller.NewRepository(db)

	// ---------- Services ----------
	userService := user.NewService(userRepo, jwtService)
	walletService := wallet.NewService(walletRepo, mint)
	escrowService := escrow.NewService(escrowRepo)
	sellerService := seller.NewService(sellerRepo, walletRepo, cfg.BondFor)
	listingService := listing.NewService(listingRepo, sellerService)
	orderService := order.NewService(orderRepo, escrowService)
	disputeService := dispute.NewService(disputeRepo, orderRepo, escrowService, store, cfg.DisputeWindowDays)
	checkoutService := checkout.NewService(checkoutRepo, listingRepo, walletRepo, escrowService, orderRepo, mint, checkout.Config{
		FeePercent:     cfg.FeePercent,
		PriceLockHours: cfg.PriceLockHours,
		EscrowHoldDays: cfg.EscrowHoldDays,
	})

	// ---------- Workers ----------
	releaseWorker := escrow.NewWorker(escrowService, redisClient, cfg.AutoReleaseInterval)
	releaseWorker.Start()
	defer releaseWorker.Stop()

	disputeWorker := dispute.NewWorker(disputeRepo, cfg.DisputeSweepInterval)
	disputeWorker.Start()
	defer disputeWorker.Stop()

	// ---------- Handlers ----------
	userHandler := user.NewHandler(userService)
	walletHandler := wallet.NewHandler(walletService)
	listingHandler := listing.NewHandler(listingService)
	escrowHandler := escrow.NewHandler(escrowService)
	orderHandler := order.NewHandler(orderService)
	disputeHandler := dispute.NewHandler(disputeService)
	checkoutHandler := checkout.NewHandler(checkoutService)
	sellerHandler := seller.NewHandler(sellerService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", userHandler.Routes(authMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/listings", listingHandler.Routes(authMiddleware))
		r.Mount("/escrows", escrowHandler.Routes(authMiddleware))
		r.Mount("/cart", checkoutHandler.CartRoutes(authMiddleware))
		r.Mount("/checkout", checkoutHandler.Routes(authMiddleware))
		r.Mount("/orders", orderHandler.Routes(authMiddleware))
		r.Mount("/disputes", disputeHandler.Routes(authMiddleware))
		r.Mount("/seller", sellerHandler.Routes(authMiddleware))
		r.Mount("/admin/disputes", disputeHandler.AdminRoutes(authMiddleware, middleware.RequireAdmin()))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
