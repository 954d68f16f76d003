package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JayJosh846/wishy/logger"
	"github.com/JayJosh846/wishy/ratelimit"
	"github.com/JayJosh846/wishy/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func authRouter(tokens *utils.TokenManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", Authentication(tokens), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.Id, "email": user.Email})
	})
	return r
}

func TestAuthentication(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	r := authRouter(tokens)
	signed, err := tokens.TokenGenerator("64b7f0c2a1b2c3d4e5f60718", "ada@example.com")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: signed})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", body["id"])
	})

	t.Run("token header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("token", signed)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeEnvelope(t, w)
		assert.Equal(t, true, body["error"])
		assert.Equal(t, "unauthenticated", body["code"])
	})

	t.Run("signed with another secret", func(t *testing.T) {
		forged, err := utils.NewTokenManager("other", time.Hour).TokenGenerator("64b7f0c2a1b2c3d4e5f60718", "ada@example.com")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: forged})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func webhookRouter(flwSecret, paystackSecret string) *gin.Engine {
	r := gin.New()
	r.POST("/hook", WebhookSignature(flwSecret, paystackSecret, logger.Discard()), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return r
}

func postHook(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/hook", bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookSignature(t *testing.T) {
	payload := `{"data":{"tx_ref":"WSH-1","amount":100,"status":"successful"}}`

	t.Run("no secret configured", func(t *testing.T) {
		w := postHook(webhookRouter("", ""), payload, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, w.Body.String())
	})

	t.Run("flutterwave hash", func(t *testing.T) {
		r := webhookRouter("flw-hash", "")
		assert.Equal(t, http.StatusOK, postHook(r, payload, map[string]string{FlutterwaveSignatureHeader: "flw-hash"}).Code)
		assert.Equal(t, http.StatusUnauthorized, postHook(r, payload, map[string]string{FlutterwaveSignatureHeader: "wrong"}).Code)
		assert.Equal(t, http.StatusUnauthorized, postHook(r, payload, nil).Code)
	})

	t.Run("paystack hmac", func(t *testing.T) {
		r := webhookRouter("", "sk_test")
		good := PaystackSignature("sk_test", []byte(payload))
		w := postHook(r, payload, map[string]string{PaystackSignatureHeader: good})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, w.Body.String())

		tampered := postHook(r, payload+" ", map[string]string{PaystackSignatureHeader: good})
		require.Equal(t, http.StatusUnauthorized, tampered.Code)
		assert.Equal(t, "invalid_signature", decodeEnvelope(t, tampered)["code"])
	})
}

func TestThrottle(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewWithClock(func() time.Time { return now })
	rule := ratelimit.Rule{Window: time.Minute, Max: 2, MinGap: time.Second}

	r := gin.New()
	r.POST("/contribute", func(c *gin.Context) {
		var body struct {
			Token  string  `json:"token"`
			Amount float64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Amount <= 0 {
			c.Status(http.StatusBadRequest)
			return
		}
		if !Throttle(c, limiter, ScopeContribute, rule, body.Token) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": body.Token, "amount": body.Amount})
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contribute", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	post := func(token string) *httptest.ResponseRecorder {
		return send(`{"token":"` + token + `","amount":10}`)
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusBadRequest, send(`{"token":"tok-a","amount":0}`).Code)
	}

	first := post("tok-a")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "tok-a", decodeEnvelope(t, first)["token"])

	tooSoon := post("tok-a")
	require.Equal(t, http.StatusTooManyRequests, tooSoon.Code)
	assert.Equal(t, "rate_limited", decodeEnvelope(t, tooSoon)["code"])

	assert.Equal(t, http.StatusOK, post("tok-b").Code)

	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, post("tok-a").Code)
	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, post("tok-a").Code)
}

func TestRequestLogger(t *testing.T) {
	log := logger.New("debug")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, buf.String(), "/missing")
	assert.Contains(t, buf.String(), "Request rejected")
}
