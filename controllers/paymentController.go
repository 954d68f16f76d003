package controllers

import (
	"net/http"

	"github.com/JayJosh846/wishy/middleware"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/JayJosh846/wishy/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const IdempotencyHeader = "Idempotency-Key"

type InitiateDepositRequest struct {
	Token      string  `json:"token" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	WishlistID string  `json:"wishlistId"`
	ItemID     string  `json:"itemId"`
}

type WithdrawRequest struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference"`
}

// PaymentController serves the wallet: the owner's balance and withdrawals,
// public deposit initiation and the gateway webhook.
type PaymentController struct {
	TransactionService services.TransactionService
	limiter            *ratelimit.Limiter
	flutterwaveSecret  string
	paystackSecret     string
	log                *logrus.Logger
}

func PaymentConstructor(transactionService services.TransactionService, limiter *ratelimit.Limiter, flutterwaveSecret, paystackSecret string, log *logrus.Logger) PaymentController {
	return PaymentController{
		TransactionService: transactionService,
		limiter:            limiter,
		flutterwaveSecret:  flutterwaveSecret,
		paystackSecret:     paystackSecret,
		log:                log,
	}
}

func (pc *PaymentController) Wallet(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	wallet, err := pc.TransactionService.GetWallet(c.Request.Context(), user.Id)
	if err != nil {
		fail(c, pc.log, err)
		return
	}
	respond(c, http.StatusOK, "Wallet retrieved", wallet)
}

func (pc *PaymentController) Withdraw(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req WithdrawRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}
	reference := req.Reference
	if reference == "" {
		reference = c.GetHeader(IdempotencyHeader)
	}

	result, err := pc.TransactionService.Withdraw(c.Request.Context(), user.Id, services.WithdrawRequest{
		Amount:    req.Amount,
		Reference: reference,
	})
	if err != nil {
		fail(c, pc.log, err)
		return
	}
	message := "Withdrawal successful"
	if result.Replayed {
		message = "Withdrawal already processed"
	}
	respond(c, http.StatusOK, message, result)
}

func (pc *PaymentController) Initiate(c *gin.Context) {
	var req InitiateDepositRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}
	if !middleware.Throttle(c, pc.limiter, middleware.ScopeWalletInitiate, ratelimit.WalletInitiateRule, req.Token) {
		return
	}

	result, err := pc.TransactionService.InitiateDeposit(c.Request.Context(), services.DepositRequest{
		Token:      req.Token,
		Amount:     req.Amount,
		Name:       req.Name,
		Email:      req.Email,
		WishlistID: req.WishlistID,
		ItemID:     req.ItemID,
	})
	if err != nil {
		fail(c, pc.log, err)
		return
	}
	respond(c, http.StatusOK, "Payment link generated successfully", result)
}

func (pc *PaymentController) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_input", "Error reading request body")
		return
	}
	event, err := services.ParseWebhookEvent(body)
	if err != nil {
		fail(c, pc.log, err)
		return
	}

	tx, err := pc.TransactionService.ConfirmDeposit(c.Request.Context(), event)
	if err != nil {
		pc.log.WithError(err).WithField("reference", event.Reference).Info("Webhook not applied")
		fail(c, pc.log, err)
		return
	}
	respond(c, http.StatusOK, "Webhook processed", gin.H{
		"reference": tx.Reference,
		"status":    tx.Status,
	})
}

func (pc *PaymentController) PaymentRoute(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	walletRoute := rg.Group("/profile/wallet", auth)
	walletRoute.GET("", pc.Wallet)
	walletRoute.POST("/withdraw", pc.Withdraw)

	publicRoute := rg.Group("/public/wallet")
	publicRoute.POST("/initiate", pc.Initiate)
	publicRoute.POST("/webhook",
		middleware.WebhookSignature(pc.flutterwaveSecret, pc.paystackSecret, pc.log),
		pc.Webhook)
}
