package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/JayJosh846/wishy/config"
	"github.com/JayJosh846/wishy/controllers"
	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/logger"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/JayJosh846/wishy/services"
	token "github.com/JayJosh846/wishy/utils"
	"github.com/gin-gonic/gin"
)

const gatewayTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	l := logger.New(cfg.LogLevel)
	l.Info("Starting Wishy...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var (
		accounts database.AccountStore
		otps     database.OtpStore
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		l.Warn("Using in-memory store, data is lost on restart")
		accounts = database.NewMemoryAccountStore()
		otps = database.NewMemoryOtpStore()
	default:
		client, err := database.ConnectToMongoDB(ctx, cfg.DatabaseURL, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseMongoDBConnection(client, l)

		accountc := database.GetCollection(client, cfg.DatabaseName, database.AccountsCollection)
		otpc := database.GetCollection(client, cfg.DatabaseName, database.OtpsCollection)
		if err := database.EnsureIndexes(ctx, accountc, otpc); err != nil {
			l.Fatalf("Failed to create indexes: %v", err)
		}
		accounts = database.NewMongoAccountStore(accountc)
		otps = database.NewMongoOtpStore(otpc)
	}

	// Image storage
	var uploader services.ImageUploader = services.DisabledUploader{}
	if cfg.GCSBucket != "" {
		gcs, err := services.NewGCSUploader(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			l.WithError(err).Warn("Image storage unavailable, uploads disabled")
		} else {
			defer gcs.Close()
			uploader = gcs
		}
	}

	// Service layer
	mailer := services.NewMailer(cfg, l)
	gateway := services.PaymentConstructor(cfg.FlutterwaveSecret, cfg.FlutterwaveBaseURL, gatewayTimeout)
	svc := controllers.Services{
		Users:        services.Constructor(accounts, l),
		Otp:          services.OtpConstructor(otps, mailer, cfg.AppURL, l),
		Wishlists:    services.WishlistConstructor(accounts, uploader, l),
		Transactions: services.TransactionConstructor(accounts, gateway, cfg.WithdrawFeePercent, cfg.AppURL, l),
		Donations:    services.DonationConstructor(accounts, uploader, l),
		AI:           services.AIConstructor(cfg.AIKey, cfg.AITimeout, l),
	}

	tokens := token.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL)
	server := controllers.NewRouter(cfg, svc, tokens, ratelimit.New(), l)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("Graceful shutdown failed")
	}
	l.Info("Wishy stopped")
}
