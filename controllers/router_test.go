package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/JayJosh846/wishy/config"
	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/logger"
	"github.com/JayJosh846/wishy/middleware"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/JayJosh846/wishy/services"
	token "github.com/JayJosh846/wishy/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const webhookHash = "flw-hash"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubMailer struct {
	mu   sync.Mutex
	sent []services.Message
}

func (m *stubMailer) Send(_ context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := regexp.MustCompile(`\d{6}`).FindString(m.sent[len(m.sent)-1].Text)
	require.NotEmpty(t, code)
	return code
}

type stubGateway struct{}

func (stubGateway) CreateCheckout(_ context.Context, req services.CheckoutRequest) (string, error) {
	return "https://checkout.example/pay/" + req.Reference, nil
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, folder string, _ []byte, _ string) (string, error) {
	return "https://cdn.example/" + folder + "/img.png", nil
}

type stubAI struct{}

func (stubAI) Ask(_ context.Context, question string) (string, error) {
	if question == "" {
		return "", services.ErrInvalidInput
	}
	return "Save a little every day.", nil
}

type envelope struct {
	Error   bool            `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wishlistJSON struct {
	ID           string  `json:"_id"`
	Name         string  `json:"name"`
	Plan         string  `json:"plan"`
	Goal         float64 `json:"goal"`
	CurrentSaved float64 `json:"currentSaved"`
	IsCompleted  bool    `json:"isCompleted"`
	ImageURL     string  `json:"imageUrl"`
	Items        []struct {
		ID    string  `json:"_id"`
		Price float64 `json:"price"`
	} `json:"items"`
}

type testApp struct {
	t       *testing.T
	router  *gin.Engine
	mailer  *stubMailer
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{
		AllowedOrigins:           []string{"http://localhost:3000"},
		AppURL:                   "https://wishy.test",
		FlutterwaveWebhookSecret: webhookHash,
		WithdrawFeePercent:       1,
		MetricsPath:              "/metrics",
	}
	accounts := database.NewMemoryAccountStore()
	mailer := &stubMailer{}
	svc := Services{
		Users:        services.Constructor(accounts, log),
		Otp:          services.OtpConstructor(database.NewMemoryOtpStore(), mailer, cfg.AppURL, log),
		Wishlists:    services.WishlistConstructor(accounts, stubUploader{}, log),
		Transactions: services.TransactionConstructor(accounts, stubGateway{}, cfg.WithdrawFeePercent, cfg.AppURL, log),
		Donations:    services.DonationConstructor(accounts, stubUploader{}, log),
		AI:           stubAI{},
	}
	tokens := token.NewTokenManager("test-secret", 24*time.Hour)
	return &testApp{
		t:       t,
		router:  NewRouter(cfg, svc, tokens, ratelimit.New(), log),
		mailer:  mailer,
		cookies: map[string]*http.Cookie{},
	}
}

func (a *testApp) send(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	for _, c := range a.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(a.cookies, c.Name)
			continue
		}
		a.cookies[c.Name] = c
	}

	var env envelope
	if w.Body.Len() > 0 && json.Valid(w.Body.Bytes()) {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testApp) do(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.send(req)
}

func (a *testApp) ok(method, path string, body interface{}, out interface{}, headers ...string) {
	a.t.Helper()
	w, env := a.do(method, path, body, headers...)
	require.Less(a.t, w.Code, 300, "%s %s: %s", method, path, w.Body.String())
	require.False(a.t, env.Error)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
}

func (a *testApp) signup(email string) {
	a.t.Helper()
	a.ok(http.MethodPost, "/api/auth/signup", gin.H{
		"email": email, "password": "secret123", "fullname": "Ada Obi",
	}, nil)
	require.Contains(a.t, a.cookies, middleware.SessionCookie)
}

func (a *testApp) createWishlist(name string) wishlistJSON {
	a.t.Helper()
	var w wishlistJSON
	a.ok(http.MethodPost, "/api/wishlist/create", gin.H{
		"name": name, "currency": "NGN", "plan": "monthly",
	}, &w)
	return w
}

func TestScenarioWishlistSelfPayments(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")

	laptop := app.createWishlist("Laptop")
	assert.Equal(t, "monthly", laptop.Plan)
	assert.Equal(t, 0.0, laptop.Goal)

	var withItem wishlistJSON
	app.ok(http.MethodPost, "/api/wishlist/item/add", gin.H{
		"wishlistId": laptop.ID, "name": "MacBook", "price": 300000,
	}, &withItem)
	assert.Equal(t, 300000.0, withItem.Goal)
	require.Len(t, withItem.Items, 1)

	var paid wishlistJSON
	app.ok(http.MethodPost, "/api/wishlist/payment", gin.H{"wishlistId": laptop.ID, "amount": 150000}, &paid)
	assert.Equal(t, 150000.0, paid.CurrentSaved)
	assert.False(t, paid.IsCompleted)

	app.ok(http.MethodPost, "/api/wishlist/payment", gin.H{"wishlistId": laptop.ID, "amount": 150000}, &paid)
	assert.Equal(t, 300000.0, paid.CurrentSaved)
	assert.True(t, paid.IsCompleted)

	var list []struct {
		wishlistJSON
		Installment float64 `json:"installment"`
	}
	app.ok(http.MethodGet, "/api/wishlist/list", nil, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 100000.0, list[0].Installment)

	var payments []struct {
		Amount float64 `json:"amount"`
		Source string  `json:"source"`
	}
	app.ok(http.MethodGet, "/api/profile/payments", nil, &payments)
	require.Len(t, payments, 2)
	assert.Equal(t, "self", payments[0].Source)
}

func TestWishlistItemsAndDelete(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")

	var created wishlistJSON
	app.ok(http.MethodPost, "/api/wishlist/create", gin.H{
		"name": "Trip", "currency": "ngn",
		"items": []gin.H{{"name": "Flight", "price": 120000}, {"name": "Hotel", "price": 80000}},
	}, &created)
	assert.Equal(t, 200000.0, created.Goal)
	require.Len(t, created.Items, 2)

	var afterDelete wishlistJSON
	app.ok(http.MethodDelete, "/api/wishlist/item/"+created.ID+"/"+created.Items[0].ID, nil, &afterDelete)
	assert.Equal(t, 80000.0, afterDelete.Goal)

	var fetched wishlistJSON
	app.ok(http.MethodGet, "/api/wishlist/items/"+created.ID, nil, &fetched)
	assert.Len(t, fetched.Items, 1)

	app.ok(http.MethodDelete, "/api/wishlist/"+created.ID, nil, nil)

	w, env := app.do(http.MethodGet, "/api/wishlist/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Code)
}

func TestCreateWishlistWithImageUpload(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("name", "Camera"))
	require.NoError(t, form.WriteField("currency", "NGN"))
	require.NoError(t, form.WriteField("goal", "45000"))
	part, err := form.CreateFormFile("image", "camera.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/wishlist/create", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w, env := app.send(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created wishlistJSON
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "https://cdn.example/"+services.FolderWishlists+"/img.png", created.ImageURL)
	assert.Equal(t, 45000.0, created.Goal)
	assert.Equal(t, "daily", created.Plan)
}

func TestScenarioPublicContribution(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")
	laptop := app.createWishlist("Laptop")

	var share struct {
		ShareURL string `json:"shareUrl"`
		Token    string `json:"token"`
	}
	app.ok(http.MethodPost, "/api/profile/share", nil, &share)
	require.Len(t, share.Token, 20)
	assert.Equal(t, "https://wishy.test/u/"+share.Token, share.ShareURL)

	visitor := newTestAppSharing(app)
	var thanks struct {
		Message string `json:"message"`
	}
	visitor.ok(http.MethodPost, "/api/public/contribute", gin.H{
		"token": share.Token, "wishlistId": laptop.ID, "amount": 50000,
		"name": "Grace", "email": "grace@example.com", "imageData": "data:image/png;base64,iVBORw0KGgo=",
	}, &thanks)
	assert.Equal(t, services.DefaultThankYou, thanks.Message)

	var payments []struct {
		Amount   float64 `json:"amount"`
		Source   string  `json:"source"`
		ImageURL string  `json:"imageUrl"`
	}
	visitor.ok(http.MethodGet, "/api/public/payments/"+share.Token, nil, &payments)
	require.Len(t, payments, 1)
	assert.Equal(t, "external", payments[0].Source)
	assert.Equal(t, 50000.0, payments[0].Amount)

	var profile struct {
		Fullname  string         `json:"fullname"`
		Wishlists []wishlistJSON `json:"wishlists"`
	}
	visitor.ok(http.MethodGet, "/api/public/profile/"+share.Token, nil, &profile)
	assert.Equal(t, "Ada Obi", profile.Fullname)
	require.Len(t, profile.Wishlists, 1)
	assert.Equal(t, 50000.0, profile.Wishlists[0].CurrentSaved)

	w, env := visitor.do(http.MethodGet, "/api/public/profile/0123456789abcdef0123", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Code)
}

// newTestAppSharing returns a cookie-less client of the same server.
func newTestAppSharing(owner *testApp) *testApp {
	return &testApp{t: owner.t, router: owner.router, mailer: owner.mailer, cookies: map[string]*http.Cookie{}}
}

func TestContributeIsRateLimited(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")
	laptop := app.createWishlist("Laptop")
	var share struct {
		Token string `json:"token"`
	}
	app.ok(http.MethodPost, "/api/profile/share", nil, &share)

	body := gin.H{
		"token": share.Token, "wishlistId": laptop.ID, "amount": 10,
		"name": "Grace", "email": "grace@example.com", "imageData": "https://cdn.example/receipt.png",
	}
	malformed := gin.H{"token": share.Token, "wishlistId": laptop.ID, "amount": -5}
	for i := 0; i < 3; i++ {
		w, env := app.do(http.MethodPost, "/api/public/contribute", malformed)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEqual(t, "rate_limited", env.Code)
	}

	first, _ := app.do(http.MethodPost, "/api/public/contribute", body)
	require.Equal(t, http.StatusOK, first.Code, "malformed requests do not use up the window: %s", first.Body.String())

	second, env := app.do(http.MethodPost, "/api/public/contribute", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate_limited", env.Code)
}

func TestScenarioWalletDepositAndWithdraw(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")
	var share struct {
		Token string `json:"token"`
	}
	app.ok(http.MethodPost, "/api/profile/share", nil, &share)

	var deposit services.DepositResult
	app.ok(http.MethodPost, "/api/public/wallet/initiate", gin.H{"token": share.Token, "amount": 1000}, &deposit)
	assert.Equal(t, "https://checkout.example/pay/"+deposit.Reference, deposit.PayURL)

	hook := gin.H{"event": "charge.completed", "data": gin.H{"tx_ref": deposit.Reference, "amount": 1000, "status": "successful"}}
	w, env := app.do(http.MethodPost, "/api/public/wallet/webhook", hook)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_signature", env.Code)

	app.ok(http.MethodPost, "/api/public/wallet/webhook", hook, nil, middleware.FlutterwaveSignatureHeader, webhookHash)
	app.ok(http.MethodPost, "/api/public/wallet/webhook", hook, nil, middleware.FlutterwaveSignatureHeader, webhookHash)

	var wallet services.Wallet
	app.ok(http.MethodGet, "/api/profile/wallet", nil, &wallet)
	assert.Equal(t, 1000.0, wallet.Balance)

	w, env = app.do(http.MethodPost, "/api/profile/wallet/withdraw", gin.H{"amount": 500})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "payout_details_missing", env.Code)

	app.ok(http.MethodPost, "/api/profile/update", gin.H{
		"accountNumber": "0123456789", "accountName": "Ada Obi", "bankName": "GTBank",
	}, nil)

	var result services.WithdrawResult
	app.ok(http.MethodPost, "/api/profile/wallet/withdraw", gin.H{"amount": 500}, &result, IdempotencyHeader, "payout-1")
	assert.Equal(t, 495.0, result.Balance)
	assert.False(t, result.Replayed)
	assert.Equal(t, "payout-1", result.Transaction.Reference)

	app.ok(http.MethodPost, "/api/profile/wallet/withdraw", gin.H{"amount": 500}, &result, IdempotencyHeader, "payout-1")
	assert.Equal(t, 495.0, result.Balance)
	assert.True(t, result.Replayed)

	app.ok(http.MethodGet, "/api/profile/wallet", nil, &wallet)
	assert.Equal(t, 495.0, wallet.Balance)
	assert.Len(t, wallet.Transactions, 2)

	w, env = app.do(http.MethodPost, "/api/profile/wallet/withdraw", gin.H{"amount": 1000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_balance", env.Code)
}

func TestFailedWebhookIsReported(t *testing.T) {
	app := newTestApp(t)
	app.signup("ada@example.com")
	var share struct {
		Token string `json:"token"`
	}
	app.ok(http.MethodPost, "/api/profile/share", nil, &share)
	var deposit services.DepositResult
	app.ok(http.MethodPost, "/api/public/wallet/initiate", gin.H{"token": share.Token, "amount": 250}, &deposit)

	hook := gin.H{"data": gin.H{"tx_ref": deposit.Reference, "amount": 250, "status": "failed"}}
	w, env := app.do(http.MethodPost, "/api/public/wallet/webhook", hook, middleware.FlutterwaveSignatureHeader, webhookHash)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_successful", env.Code)

	unknown := gin.H{"data": gin.H{"tx_ref": "WSH-missing", "amount": 250, "status": "successful"}}
	w, env = app.do(http.MethodPost, "/api/public/wallet/webhook", unknown, middleware.FlutterwaveSignatureHeader, webhookHash)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Code)

	var wallet services.Wallet
	app.ok(http.MethodGet, "/api/profile/wallet", nil, &wallet)
	assert.Equal(t, 0.0, wallet.Balance)
}

func TestAuthLifecycle(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(http.MethodGet, "/api/wishlist/list", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", env.Code)

	w, env = app.do(http.MethodPost, "/api/auth/signup", gin.H{"email": "ada@example.com", "fullname": "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_fields", env.Code)

	app.signup("Ada@Example.com")

	var me struct {
		Email string `json:"email"`
	}
	app.ok(http.MethodGet, "/api/auth/me", nil, &me)
	assert.Equal(t, "ada@example.com", me.Email)

	app.ok(http.MethodPost, "/api/auth/signout", nil, nil)
	assert.NotContains(t, app.cookies, middleware.SessionCookie)
	w, _ = app.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = app.do(http.MethodPost, "/api/auth/signin", gin.H{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", env.Code)

	app.ok(http.MethodPost, "/api/auth/signin", gin.H{"email": "ada@example.com", "password": "secret123"}, nil)
	app.ok(http.MethodGet, "/api/auth/me", nil, nil)

	w, env = app.do(http.MethodPost, "/api/auth/signup", gin.H{
		"email": "ada@example.com", "password": "secret123", "fullname": "Ada Obi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user_exists", env.Code)

	var exists struct {
		Exists bool `json:"exists"`
	}
	app.ok(http.MethodPost, "/api/auth/check-email", gin.H{"email": "ADA@example.com"}, &exists)
	assert.True(t, exists.Exists)

	var check services.NicknameCheck
	app.ok(http.MethodPost, "/api/auth/check-nickname", gin.H{"nickname": "admin"}, &check)
	assert.False(t, check.Available)
	assert.Equal(t, "reserved", check.Reason)
}

func TestSessionForMissingAccount(t *testing.T) {
	app := newTestApp(t)
	signed, err := token.NewTokenManager("test-secret", time.Hour).
		TokenGenerator(primitive.NewObjectID().Hex(), "ghost@example.com")
	require.NoError(t, err)

	w, env := app.do(http.MethodGet, "/api/auth/me", nil, "token", signed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", env.Code)
}

func TestOtpFlow(t *testing.T) {
	app := newTestApp(t)

	var sent struct {
		EmailSent bool `json:"email_sent"`
	}
	app.ok(http.MethodPost, "/api/otp/send", gin.H{"email": "grace@example.com"}, &sent)
	assert.True(t, sent.EmailSent)
	require.Contains(t, app.cookies, OtpCookie)
	code := app.mailer.lastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	w, env := app.do(http.MethodPost, "/api/otp/verify", gin.H{"email": "grace@example.com", "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_code", env.Code)

	app.ok(http.MethodPost, "/api/otp/verify", gin.H{"email": "grace@example.com", "otp": code}, nil)
	assert.NotContains(t, app.cookies, OtpCookie)

	w, env = app.do(http.MethodPost, "/api/otp/verify", gin.H{"email": "grace@example.com", "otp": code})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_code", env.Code)
}

func TestAskAndHealth(t *testing.T) {
	app := newTestApp(t)

	var answer struct {
		Answer string `json:"answer"`
	}
	app.ok(http.MethodPost, "/api/ai/ask", gin.H{"question": "How do I save?"}, &answer)
	assert.Equal(t, "Save a little every day.", answer.Answer)

	w, env := app.do(http.MethodPost, "/api/ai/ask", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_input", env.Code)

	w, _ = app.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wishy_http_requests_total")
}
