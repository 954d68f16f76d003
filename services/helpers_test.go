package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/logger"
	"github.com/JayJosh846/wishy/models"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeGateway struct {
	link     string
	err      error
	requests []CheckoutRequest
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (string, error) {
	g.requests = append(g.requests, req)
	return g.link, g.err
}

type fakeUploader struct {
	url     string
	err     error
	folders []string
}

func (u *fakeUploader) Upload(_ context.Context, folder string, _ []byte, _ string) (string, error) {
	u.folders = append(u.folders, folder)
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	accounts  *database.MemoryAccountStore
	users     UserService
	wishlists WishlistService
	wallet    TransactionService
	donations DonationService
	gateway   *fakeGateway
	uploader  *fakeUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	accounts := database.NewMemoryAccountStore()
	gateway := &fakeGateway{link: "https://checkout.example/pay/1"}
	uploader := &fakeUploader{url: "https://cdn.example/img.png"}
	return &fixture{
		accounts:  accounts,
		users:     Constructor(accounts, log),
		wishlists: WishlistConstructor(accounts, uploader, log),
		wallet:    TransactionConstructor(accounts, gateway, 1, "https://wishy.test", log),
		donations: DonationConstructor(accounts, uploader, log),
		gateway:   gateway,
		uploader:  uploader,
	}
}

// signup creates an account and returns its id as a session would carry it.
func (f *fixture) signup(t *testing.T, email string) string {
	t.Helper()
	account, err := f.users.Signup(context.Background(), SignupInput{
		Email:    email,
		Password: "secret123",
		Fullname: "Ada Lovelace",
	})
	require.NoError(t, err)
	return account.ID.Hex()
}

func (f *fixture) account(t *testing.T, accountID string) *models.Account {
	t.Helper()
	account, err := f.users.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account
}

// fund sets the wallet balance and payout details directly.
func (f *fixture) fund(t *testing.T, accountID string, balance float64) {
	t.Helper()
	account := f.account(t, accountID)
	account.WalletBalance = balance
	account.AccountNumber = "0123456789"
	account.AccountName = "Ada Lovelace"
	account.BankName = "Wishy Bank"
	require.NoError(t, f.accounts.Save(context.Background(), account))
}
