package services

import (
	"context"
	"strings"
	"time"

	"github.com/JayJosh846/wishy/database"
	"github.com/JayJosh846/wishy/metrics"
	"github.com/JayJosh846/wishy/models"
	helper "github.com/JayJosh846/wishy/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultThankYou = "Thank you!"

// PublicProfile is what anonymous visitors of a share link may see.
type PublicProfile struct {
	Fullname        string         `json:"fullname"`
	Nickname        string         `json:"nickname,omitempty"`
	Email           string         `json:"email"`
	AccountNumber   string         `json:"accountNumber,omitempty"`
	AccountName     string         `json:"accountName,omitempty"`
	BankName        string         `json:"bankName,omitempty"`
	ThankYouMessage string         `json:"thankYouMessage,omitempty"`
	Wishlists       []WishlistView `json:"wishlists"`
	TotalBudget     float64        `json:"totalBudget"`
}

type Contribution struct {
	Token      string
	WishlistID string
	ItemID     string
	Amount     float64
	Name       string
	Email      string
	ImageData  string
}

type DonationService interface {
	PublicProfile(ctx context.Context, token string) (*PublicProfile, error)
	Contribute(ctx context.Context, contribution Contribution) (string, error)
	PublicPayments(ctx context.Context, token string) ([]models.Payment, error)
}

type DonationServiceImpl struct {
	accounts database.AccountStore
	uploader ImageUploader
	log      *logrus.Logger
}

func DonationConstructor(accounts database.AccountStore, uploader ImageUploader, log *logrus.Logger) DonationService {
	return &DonationServiceImpl{
		accounts: accounts,
		uploader: uploader,
		log:      log,
	}
}

func (d *DonationServiceImpl) PublicProfile(ctx context.Context, token string) (*PublicProfile, error) {
	account, err := shareTokenAccount(d.accounts, token)(ctx)
	if err != nil {
		return nil, err
	}

	active := account.ActiveWishlists()
	views := make([]WishlistView, 0, len(active))
	for _, w := range active {
		views = append(views, WishlistView{Wishlist: w, Installment: w.Installment()})
	}
	return &PublicProfile{
		Fullname:        account.Fullname,
		Nickname:        account.Nickname,
		Email:           account.Email,
		AccountNumber:   account.AccountNumber,
		AccountName:     account.AccountName,
		BankName:        account.BankName,
		ThankYouMessage: account.ThankYouMessage,
		Wishlists:       views,
		TotalBudget:     account.TotalBudget(),
	}, nil
}

// Contribute records an external payment toward one of the share owner's
// active wishlists and returns the owner's thank-you message.
func (d *DonationServiceImpl) Contribute(ctx context.Context, contribution Contribution) (string, error) {
	if contribution.Token == "" || contribution.WishlistID == "" || contribution.Amount <= 0 ||
		strings.TrimSpace(contribution.Name) == "" || strings.TrimSpace(contribution.Email) == "" ||
		contribution.ImageData == "" {
		return "", invalidInput("token, wishlistId, amount, name, email and imageData are required")
	}
	tooLarge := invalidInput("imageData must be %dMB or smaller", MaxImageSize>>20)
	if len(contribution.ImageData) > maxImageDataLength {
		return "", tooLarge
	}
	image, contentType, isDataURI := decodeDataURI(contribution.ImageData)
	if len(image) > MaxImageSize {
		return "", tooLarge
	}
	wishlistID, err := parseObjectID(contribution.WishlistID)
	if err != nil {
		return "", err
	}
	var itemID *primitive.ObjectID
	if contribution.ItemID != "" {
		parsed, err := parseObjectID(contribution.ItemID)
		if err != nil {
			return "", err
		}
		itemID = &parsed
	}

	load := shareTokenAccount(d.accounts, contribution.Token)
	account, err := load(ctx)
	if err != nil {
		return "", err
	}
	if account.ActiveWishlist(wishlistID) == nil {
		return "", ErrNotFound
	}
	var receiptURL string
	switch {
	case isDataURI:
		receiptURL = uploadImage(ctx, d.uploader, d.log, FolderReceipts, image, contentType)
	case strings.HasPrefix(contribution.ImageData, "http://"), strings.HasPrefix(contribution.ImageData, "https://"):
		receiptURL = contribution.ImageData
	}
	receipt := receiptURL
	if receipt == "" {
		receipt = contribution.ImageData
	}

	message := DefaultThankYou
	_, err = mutateAccount(ctx, d.accounts, load, func(account *models.Account) error {
		w := account.ActiveWishlist(wishlistID)
		if w == nil {
			return ErrNotFound
		}
		if itemID != nil && w.Item(*itemID) == nil {
			return ErrNotFound
		}

		now := time.Now().UTC()
		account.Donations = append(account.Donations, models.Donation{
			ID:        primitive.NewObjectID(),
			ImageData: receipt,
			CreatedAt: now,
		})
		account.Payments = append(account.Payments, models.Payment{
			ID:         primitive.NewObjectID(),
			WishlistID: w.ID,
			ItemID:     itemID,
			Amount:     helper.RoundMoney(contribution.Amount),
			Name:       strings.TrimSpace(contribution.Name),
			Email:      strings.TrimSpace(contribution.Email),
			ImageURL:   receiptURL,
			Source:     models.SourceExternal,
			CreatedAt:  now,
		})
		w.Credit(contribution.Amount, now)
		account.Touch(now)

		if account.ThankYouMessage != "" {
			message = account.ThankYouMessage
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	metrics.Contributions.WithLabelValues(string(models.SourceExternal)).Inc()
	return message, nil
}

func (d *DonationServiceImpl) PublicPayments(ctx context.Context, token string) ([]models.Payment, error) {
	account, err := shareTokenAccount(d.accounts, token)(ctx)
	if err != nil {
		return nil, err
	}
	return account.Payments, nil
}
