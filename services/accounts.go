package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/metrics"
	"github.com/JayJosh846/wishy/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxSaveAttempts = 5

// errNoChange lets a mutation finish successfully without writing.
var errNoChange = errors.New("no change")

type accountLoader func(ctx context.Context) (*models.Account, error)

// sessionAccount loads the account a session points at. A session whose
// account no longer exists is treated as unauthenticated.
func sessionAccount(accounts database.AccountStore, accountID string) accountLoader {
	return func(ctx context.Context) (*models.Account, error) {
		id, err := primitive.ObjectIDFromHex(accountID)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		account, err := accounts.FindByID(ctx, id)
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return account, err
	}
}

func shareTokenAccount(accounts database.AccountStore, token string) accountLoader {
	return func(ctx context.Context) (*models.Account, error) {
		if token == "" {
			return nil, ErrNotFound
		}
		account, err := accounts.FindByShareToken(ctx, token)
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return account, err
	}
}

func depositReferenceAccount(accounts database.AccountStore, reference string) accountLoader {
	return func(ctx context.Context) (*models.Account, error) {
		account, err := accounts.FindByDepositReference(ctx, reference)
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return account, err
	}
}

// mutateAccount runs load, mutate and save, starting over from a fresh load
// whenever the save loses the version race. mutate may run more than once and
// must only touch the account it is handed.
func mutateAccount(ctx context.Context, accounts database.AccountStore, load accountLoader, mutate func(*models.Account) error) (*models.Account, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		account, err := load(ctx)
		if err != nil {
			return nil, err
		}

		err = mutate(account)
		if errors.Is(err, errNoChange) {
			return account, nil
		}
		if err != nil {
			return nil, err
		}

		err = accounts.Save(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return nil, err
		}
		metrics.StoreConflicts.Inc()
	}
	return nil, fmt.Errorf("save account after %d attempts: %w", maxSaveAttempts, database.ErrConflict)
}

// parseObjectID maps malformed ids to ErrNotFound.
func parseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}
