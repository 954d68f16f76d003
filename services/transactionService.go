package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/metrics"
	"github.com/JayJosh846/wishy/models"
	helper "github.com/JayJosh846/wishy/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DepositReferencePrefix  = "WSH"
	WithdrawReferencePrefix = "WDR"
	FallbackPayURL          = "https://flutterwave.com/pay"
	defaultCurrency         = "NGN"
)

type Wallet struct {
	Balance      float64                    `json:"balance"`
	Transactions []models.WalletTransaction `json:"transactions"`
}

type DepositRequest struct {
	Token      string
	Amount     float64
	Name       string
	Email      string
	WishlistID string
	ItemID     string
}

type DepositResult struct {
	Reference string `json:"reference"`
	PayURL    string `json:"payUrl"`
}

// WebhookEvent is the part of a gateway callback the ledger acts on.
type WebhookEvent struct {
	Reference string
	Amount    float64
	Status    string
	Payload   map[string]interface{}
}

type WithdrawRequest struct {
	Amount    float64
	Reference string
}

type WithdrawResult struct {
	Transaction models.WalletTransaction `json:"transaction"`
	Balance     float64                  `json:"balance"`
	Replayed    bool                     `json:"replayed"`
}

type TransactionService interface {
	GetWallet(ctx context.Context, accountID string) (*Wallet, error)
	InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositResult, error)
	ConfirmDeposit(ctx context.Context, event WebhookEvent) (*models.WalletTransaction, error)
	Withdraw(ctx context.Context, accountID string, req WithdrawRequest) (*WithdrawResult, error)
}

type TransactionServiceImpl struct {
	accounts   database.AccountStore
	gateway    PaymentGateway
	feePercent float64
	appURL     string
	log        *logrus.Logger
}

func TransactionConstructor(accounts database.AccountStore, gateway PaymentGateway, feePercent float64, appURL string, log *logrus.Logger) TransactionService {
	return &TransactionServiceImpl{
		accounts:   accounts,
		gateway:    gateway,
		feePercent: feePercent,
		appURL:     appURL,
		log:        log,
	}
}

func (t *TransactionServiceImpl) GetWallet(ctx context.Context, accountID string) (*Wallet, error) {
	account, err := sessionAccount(t.accounts, accountID)(ctx)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		Balance:      account.WalletBalance,
		Transactions: account.WalletTransactions,
	}, nil
}

// InitiateDeposit records a pending deposit and asks the gateway for a
// checkout link. The balance only moves when the webhook confirms it.
func (t *TransactionServiceImpl) InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositResult, error) {
	if req.Token == "" || req.Amount <= 0 {
		return nil, invalidInput("token and a positive amount are required")
	}

	now := time.Now().UTC()
	reference := helper.GenerateTransactionReference(DepositReferencePrefix, now)

	var checkout CheckoutRequest
	_, err := mutateAccount(ctx, t.accounts, shareTokenAccount(t.accounts, req.Token), func(account *models.Account) error {
		currency := defaultCurrency
		if id, err := primitive.ObjectIDFromHex(req.WishlistID); err == nil {
			if w := account.ActiveWishlist(id); w != nil && w.Currency != "" {
				currency = w.Currency
			}
		}

		account.WalletTransactions = append(account.WalletTransactions, models.WalletTransaction{
			ID:        primitive.NewObjectID(),
			Type:      models.TransactionDeposit,
			Amount:    helper.RoundMoney(req.Amount),
			Reference: reference,
			Status:    models.StatusPending,
			Meta: bson.M{
				"name":       req.Name,
				"email":      req.Email,
				"wishlistId": req.WishlistID,
				"itemId":     req.ItemID,
				"currency":   currency,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
		account.Touch(now)

		checkout = CheckoutRequest{
			Amount:        helper.RoundMoney(req.Amount),
			Currency:      currency,
			Reference:     reference,
			RedirectURL:   strings.TrimRight(t.redirectBase(), "/") + "/budget",
			CustomerEmail: firstNonEmpty(req.Email, account.Email),
			CustomerName:  firstNonEmpty(req.Name, account.Fullname),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.Deposits.WithLabelValues("initiated").Inc()

	payURL, err := t.gateway.CreateCheckout(ctx, checkout)
	if err != nil || payURL == "" {
		if err != nil && !errors.Is(err, errGatewayDisabled) {
			t.log.WithError(err).WithField("reference", reference).Warn("Payment gateway checkout failed, using fallback link")
		}
		payURL = FallbackPayURL
	}
	return &DepositResult{Reference: reference, PayURL: payURL}, nil
}

// ConfirmDeposit applies a gateway callback. A completed deposit is never
// credited twice.
func (t *TransactionServiceImpl) ConfirmDeposit(ctx context.Context, event WebhookEvent) (*models.WalletTransaction, error) {
	if event.Reference == "" || event.Amount <= 0 {
		return nil, invalidInput("reference and amount are required")
	}
	successful := event.Status == "" || isSuccessStatus(event.Status)

	var result models.WalletTransaction
	outcome := "completed"
	_, err := mutateAccount(ctx, t.accounts, depositReferenceAccount(t.accounts, event.Reference), func(account *models.Account) error {
		tx := account.Deposit(event.Reference)
		if tx == nil {
			return ErrNotFound
		}
		now := time.Now().UTC()

		if tx.Status == models.StatusCompleted {
			if !successful {
				return ErrNotSuccessful
			}
			outcome = "replayed"
			result = *tx
			return errNoChange
		}
		if tx.Meta == nil {
			tx.Meta = bson.M{}
		}
		tx.Meta["webhook"] = event.Payload
		tx.UpdatedAt = now

		if !successful {
			outcome = "failed"
			tx.Status = models.StatusFailed
			account.Touch(now)
			result = *tx
			return nil
		}

		if helper.RoundMoney(event.Amount) != tx.Amount {
			t.log.WithFields(logrus.Fields{
				"reference": event.Reference,
				"expected":  tx.Amount,
				"reported":  event.Amount,
			}).Warn("Webhook amount differs from the pending deposit")
		}
		outcome = "completed"
		tx.Status = models.StatusCompleted
		account.WalletBalance = helper.AddMoney(account.WalletBalance, tx.Amount)
		account.Touch(now)
		result = *tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.Deposits.WithLabelValues(outcome).Inc()

	if outcome == "failed" {
		return &result, ErrNotSuccessful
	}
	return &result, nil
}

// Withdraw debits amount plus fee. The reference is the idempotency key: a
// repeated reference returns the original outcome without touching the
// balance.
func (t *TransactionServiceImpl) Withdraw(ctx context.Context, accountID string, req WithdrawRequest) (*WithdrawResult, error) {
	if req.Amount <= 0 {
		return nil, invalidInput("amount must be greater than zero")
	}
	now := time.Now().UTC()
	reference := strings.TrimSpace(req.Reference)
	if strings.HasPrefix(reference, DepositReferencePrefix+"-") {
		return nil, invalidInput("reference prefix %s- is reserved for deposits", DepositReferencePrefix)
	}
	if reference == "" {
		reference = helper.GenerateTransactionReference(WithdrawReferencePrefix, now)
	}
	amount := helper.RoundMoney(req.Amount)

	result := &WithdrawResult{}
	account, err := mutateAccount(ctx, t.accounts, sessionAccount(t.accounts, accountID), func(account *models.Account) error {
		if !account.HasPayoutDetails() {
			return ErrPayoutDetailsMissing
		}
		if existing := account.WalletTransaction(reference); existing != nil {
			if existing.Type != models.TransactionWithdraw {
				return invalidInput("reference %s belongs to another transaction", reference)
			}
			result.Replayed = true
			result.Transaction = *existing
			return errNoChange
		}

		fee := helper.PercentOf(amount, t.feePercent)
		total := helper.AddMoney(amount, fee)
		if account.WalletBalance < total {
			return ErrInsufficientBalance
		}

		account.WalletBalance = helper.SubMoney(account.WalletBalance, total)
		tx := models.WalletTransaction{
			ID:        primitive.NewObjectID(),
			Type:      models.TransactionWithdraw,
			Amount:    amount,
			Reference: reference,
			Status:    models.StatusCompleted,
			Meta: bson.M{
				"fee":        fee,
				"feePercent": t.feePercent,
				"netPayout":  amount,
				"totalDebit": total,
				"bank": bson.M{
					"accountNumber": account.AccountNumber,
					"accountName":   account.AccountName,
					"bankName":      account.BankName,
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		account.WalletTransactions = append(account.WalletTransactions, tx)
		account.Touch(now)
		result.Replayed = false
		result.Transaction = tx
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrPayoutDetailsMissing) {
			metrics.Withdrawals.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}

	result.Balance = account.WalletBalance
	if result.Replayed {
		metrics.Withdrawals.WithLabelValues("replayed").Inc()
	} else {
		metrics.Withdrawals.WithLabelValues("completed").Inc()
	}
	return result, nil
}

func (t *TransactionServiceImpl) redirectBase() string {
	if t.appURL != "" {
		return t.appURL
	}
	return defaultAppURL
}

// ParseWebhookEvent reads the reference, amount and status from a gateway
// callback. Fields are taken from "data" when present, else from the top
// level; Flutterwave sends tx_ref and Paystack sends reference.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, invalidInput("webhook body is not valid JSON")
	}

	data, _ := payload["data"].(map[string]interface{})
	lookup := func(keys ...string) interface{} {
		for _, source := range []map[string]interface{}{data, payload} {
			if source == nil {
				continue
			}
			for _, key := range keys {
				if v, ok := source[key]; ok && v != nil && v != "" {
					return v
				}
			}
		}
		return nil
	}

	event := WebhookEvent{Payload: payload}
	if ref, ok := lookup("tx_ref", "reference").(string); ok {
		event.Reference = ref
	}
	if status, ok := lookup("status").(string); ok {
		event.Status = status
	}
	switch amount := lookup("amount").(type) {
	case float64:
		event.Amount = amount
	case string:
		event.Amount, _ = strconv.ParseFloat(amount, 64)
	}
	return event, nil
}

func isSuccessStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "successful", "success":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
