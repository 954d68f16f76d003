package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var errGatewayDisabled = errors.New("payment gateway not configured")

type CheckoutRequest struct {
	Amount        float64
	Currency      string
	Reference     string
	RedirectURL   string
	CustomerEmail string
	CustomerName  string
}

// PaymentGateway hands out hosted checkout links for wallet deposits.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

type FlutterwaveGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func PaymentConstructor(secretKey, baseURL string, timeout time.Duration) PaymentGateway {
	return &FlutterwaveGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

type flutterwaveCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type PaymentRequest struct {
	Amount      float64             `json:"amount"`
	Currency    string              `json:"currency"`
	TxRef       string              `json:"tx_ref"`
	RedirectURL string              `json:"redirect_url"`
	Customer    flutterwaveCustomer `json:"customer"`
}

type PaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (g *FlutterwaveGateway) CreateCheckout(ctx context.Context, checkout CheckoutRequest) (string, error) {
	if g.secretKey == "" {
		return "", errGatewayDisabled
	}

	requestBodyJSON, err := json.Marshal(PaymentRequest{
		Amount:      checkout.Amount,
		Currency:    checkout.Currency,
		TxRef:       checkout.Reference,
		RedirectURL: checkout.RedirectURL,
		Customer: flutterwaveCustomer{
			Email: checkout.CustomerEmail,
			Name:  checkout.CustomerName,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(requestBodyJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+g.secretKey)

	res, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("flutterwave responded %d", res.StatusCode)
	}

	var paymentResponse PaymentResponse
	if err := json.Unmarshal(body, &paymentResponse); err != nil {
		return "", fmt.Errorf("decode flutterwave response: %w", err)
	}
	if paymentResponse.Data.Link == "" {
		return "", fmt.Errorf("flutterwave returned no checkout link: %s", paymentResponse.Message)
	}
	return paymentResponse.Data.Link, nil
}
