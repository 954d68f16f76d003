package controllers

import (
	"net/http"
	"time"

	"github.com/JayJosh846/wishy/config"
	"github.com/JayJosh846/wishy/metrics"
	"github.com/JayJosh846/wishy/middleware"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/JayJosh846/wishy/services"
	token "github.com/JayJosh846/wishy/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Users        services.UserService
	Otp          services.OtpService
	Wishlists    services.WishlistService
	Transactions services.TransactionService
	Donations    services.DonationService
	AI           services.AIService
}

// NewRouter builds the gin engine with every route mounted under /api.
func NewRouter(cfg *config.Config, svc Services, tokens *token.TokenManager, limiter *ratelimit.Limiter, log *logrus.Logger) *gin.Engine {
	server := gin.New()
	server.Use(gin.Recovery(), middleware.RequestLogger(log), metrics.Middleware())
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	server.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "token", IdempotencyHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	server.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.MetricsPath != "" {
		server.GET(cfg.MetricsPath, metrics.Handler())
	}

	auth := middleware.Authentication(tokens)
	basepath := server.Group("/api")

	uc := Constructor(svc.Users, tokens, cfg.CookieDomain, cfg.AppURL, log)
	uc.UserRoutes(basepath, auth)

	oc := OtpConstructor(svc.Otp, cfg.CookieDomain, log)
	oc.OtpRoutes(basepath)

	wc := WishlistConstructor(svc.Wishlists, log)
	wc.WishlistRoutes(basepath, auth)

	pc := PaymentConstructor(svc.Transactions, limiter, cfg.FlutterwaveWebhookSecret, cfg.PaystackSecret, log)
	pc.PaymentRoute(basepath, auth)

	dc := DonationConstructor(svc.Donations, limiter, log)
	dc.DonationRoutes(basepath)

	ac := AIConstructor(svc.AI, log)
	ac.AIRoutes(basepath)

	return server
}
