package database

import (
	"context"
	"errors"

	"github.com/JayJosh846/wishy/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrConflict  = errors.New("document was modified concurrently")
	ErrDuplicate = errors.New("duplicate key")
)

// AccountStore persists whole account documents. Save is a compare-and-swap
// on Account.Version: it fails with ErrConflict when another writer saved the
// document after it was loaded, and bumps Version on success.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByNickname(ctx context.Context, nickname string) (*models.Account, error)
	FindByShareToken(ctx context.Context, token string) (*models.Account, error)
	FindByDepositReference(ctx context.Context, reference string) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) error
}

// OtpStore keeps pending email verification sessions.
type OtpStore interface {
	Create(ctx context.Context, session *models.OtpSession) error
	Get(ctx context.Context, id string) (*models.OtpSession, error)
	IncrementAttempts(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
