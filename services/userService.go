package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/models"
	helper "github.com/JayJosh846/wishy/utils"
	"github.com/sirupsen/logrus"
)

const defaultAppURL = "http://localhost:3000"

var (
	nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	reservedNicknames = map[string]struct{}{
		"admin": {}, "root": {}, "system": {}, "support": {},
		"help": {}, "wishy": {}, "test": {}, "guest": {},
	}
)

type SignupInput struct {
	Email       string
	Password    string
	Fullname    string
	Nickname    string
	PhoneNumber string
	CountryCode string
}

// ProfileUpdate carries the optional profile fields; nil leaves a field as is.
type ProfileUpdate struct {
	AccountNumber   *string
	AccountName     *string
	BankName        *string
	ThankYouMessage *string
}

type NicknameCheck struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type UserService interface {
	Signup(ctx context.Context, input SignupInput) (*models.Account, error)
	Signin(ctx context.Context, email, password string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	CheckNickname(ctx context.Context, nickname string) (NicknameCheck, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (*models.Account, error)
	EnsureShareToken(ctx context.Context, accountID string) (string, error)
	Payments(ctx context.Context, accountID string) ([]models.Payment, error)
}

type UserServiceImpl struct {
	accounts database.AccountStore
	log      *logrus.Logger
}

func Constructor(accounts database.AccountStore, log *logrus.Logger) UserService {
	return &UserServiceImpl{
		accounts: accounts,
		log:      log,
	}
}

func (u *UserServiceImpl) Signup(ctx context.Context, input SignupInput) (*models.Account, error) {
	email := helper.NormalizeEmail(input.Email)
	fullname := strings.TrimSpace(input.Fullname)
	if email == "" || input.Password == "" || fullname == "" {
		return nil, missingFields("email", "password", "fullname")
	}

	nickname := strings.TrimSpace(input.Nickname)
	if nickname != "" {
		if !nicknamePattern.MatchString(nickname) {
			return nil, invalidInput("nickname may only contain letters, digits and underscores")
		}
		if isReservedNickname(nickname) {
			return nil, ErrNicknameTaken
		}
	}

	_, err := u.accounts.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if nickname != "" {
		_, err = u.accounts.FindByNickname(ctx, nickname)
		if err == nil {
			return nil, ErrNicknameTaken
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account := models.NewAccount(email, hash, fullname, time.Now().UTC())
	account.Nickname = nickname
	account.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	account.CountryCode = strings.TrimSpace(input.CountryCode)

	if err := u.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	u.log.WithField("account", account.ID.Hex()).Info("Account created")
	return account, nil
}

func (u *UserServiceImpl) Signin(ctx context.Context, email, password string) (*models.Account, error) {
	email = helper.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, missingFields("email", "password")
	}

	account, err := u.accounts.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helper.VerifyPassword(password, account.Password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (u *UserServiceImpl) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return sessionAccount(u.accounts, accountID)(ctx)
}

func (u *UserServiceImpl) CheckNickname(ctx context.Context, nickname string) (NicknameCheck, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || !nicknamePattern.MatchString(nickname) {
		return NicknameCheck{Available: false, Reason: "invalid"}, invalidInput("nickname may only contain letters, digits and underscores")
	}
	if isReservedNickname(nickname) {
		return NicknameCheck{Available: false, Reason: "reserved"}, nil
	}

	_, err := u.accounts.FindByNickname(ctx, nickname)
	if err == nil {
		return NicknameCheck{Available: false, Reason: "taken"}, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return NicknameCheck{}, err
	}
	return NicknameCheck{Available: true}, nil
}

func (u *UserServiceImpl) EmailExists(ctx context.Context, email string) (bool, error) {
	email = helper.NormalizeEmail(email)
	if email == "" {
		return false, missingFields("email")
	}
	_, err := u.accounts.FindByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (u *UserServiceImpl) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (*models.Account, error) {
	return mutateAccount(ctx, u.accounts, sessionAccount(u.accounts, accountID), func(account *models.Account) error {
		if update.AccountNumber != nil {
			account.AccountNumber = strings.TrimSpace(*update.AccountNumber)
		}
		if update.AccountName != nil {
			account.AccountName = strings.TrimSpace(*update.AccountName)
		}
		if update.BankName != nil {
			account.BankName = strings.TrimSpace(*update.BankName)
		}
		if update.ThankYouMessage != nil {
			account.ThankYouMessage = *update.ThankYouMessage
		}
		account.Touch(time.Now().UTC())
		return nil
	})
}

// EnsureShareToken returns the account's share token, generating one on first
// use. A token collision is retried with a fresh token.
func (u *UserServiceImpl) EnsureShareToken(ctx context.Context, accountID string) (string, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		account, err := mutateAccount(ctx, u.accounts, sessionAccount(u.accounts, accountID), func(account *models.Account) error {
			if account.ShareToken != "" {
				return errNoChange
			}
			token, err := helper.GenerateShareToken()
			if err != nil {
				return err
			}
			account.ShareToken = token
			account.Touch(time.Now().UTC())
			return nil
		})
		if errors.Is(err, database.ErrDuplicate) {
			continue
		}
		if err != nil {
			return "", err
		}
		return account.ShareToken, nil
	}
	return "", fmt.Errorf("generate share token: %w", database.ErrDuplicate)
}

func (u *UserServiceImpl) Payments(ctx context.Context, accountID string) ([]models.Payment, error) {
	account, err := u.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Payments, nil
}

// ShareURL joins the public app address with the share path. appURL wins over
// the request origin.
func ShareURL(appURL, origin, token string) string {
	base := appURL
	if base == "" {
		base = origin
	}
	if base == "" {
		base = defaultAppURL
	}
	return strings.TrimRight(base, "/") + "/u/" + token
}

func isReservedNickname(nickname string) bool {
	_, reserved := reservedNicknames[strings.ToLower(nickname)]
	return reserved
}
