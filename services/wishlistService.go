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

// ImageUpload is a file received with a request, stored before the account
// mutation runs.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

type ItemInput struct {
	Name        string
	Price       float64
	Importance  models.Importance
	Description string
	ImageURL    string
	Image       *ImageUpload
}

type WishlistInput struct {
	Name       string
	Currency   string
	Plan       models.Plan
	Goal       float64
	Importance models.Importance
	ImageURL   string
	Image      *ImageUpload
	Items      []ItemInput
}

// WishlistUpdate is a partial update; nil fields are left alone. Goal is only
// applied while the wishlist has no items.
type WishlistUpdate struct {
	WishlistID string
	Name       *string
	Currency   *string
	Plan       *models.Plan
	Goal       *float64
	Importance *models.Importance
	ImageURL   *string
	Image      *ImageUpload
}

type NewItem struct {
	WishlistID string
	ItemInput
}

type ItemUpdate struct {
	WishlistID  string
	ItemID      string
	Name        *string
	Price       *float64
	Importance  *models.Importance
	Description *string
	ImageURL    *string
	Image       *ImageUpload
}

type SelfPayment struct {
	WishlistID string
	ItemID     string
	Amount     float64
}

// WishlistView is a wishlist with its savings suggestion.
type WishlistView struct {
	models.Wishlist
	Installment float64 `json:"installment"`
}

type WishlistService interface {
	List(ctx context.Context, accountID string) ([]WishlistView, error)
	Get(ctx context.Context, accountID, wishlistID string) (*models.Wishlist, error)
	Create(ctx context.Context, accountID string, input WishlistInput) (*models.Wishlist, error)
	Update(ctx context.Context, accountID string, update WishlistUpdate) (*models.Wishlist, error)
	Delete(ctx context.Context, accountID, wishlistID string) error
	AddItem(ctx context.Context, accountID string, item NewItem) (*models.Wishlist, error)
	UpdateItem(ctx context.Context, accountID string, update ItemUpdate) (*models.Wishlist, error)
	DeleteItem(ctx context.Context, accountID, wishlistID, itemID string) (*models.Wishlist, error)
	RecordPayment(ctx context.Context, accountID string, payment SelfPayment) (*models.Wishlist, error)
}

type WishlistServiceImpl struct {
	accounts database.AccountStore
	uploader ImageUploader
	log      *logrus.Logger
}

func WishlistConstructor(accounts database.AccountStore, uploader ImageUploader, log *logrus.Logger) WishlistService {
	return &WishlistServiceImpl{
		accounts: accounts,
		uploader: uploader,
		log:      log,
	}
}

func (s *WishlistServiceImpl) List(ctx context.Context, accountID string) ([]WishlistView, error) {
	account, err := sessionAccount(s.accounts, accountID)(ctx)
	if err != nil {
		return nil, err
	}
	active := account.ActiveWishlists()
	views := make([]WishlistView, 0, len(active))
	for _, w := range active {
		views = append(views, WishlistView{Wishlist: w, Installment: w.Installment()})
	}
	return views, nil
}

func (s *WishlistServiceImpl) Get(ctx context.Context, accountID, wishlistID string) (*models.Wishlist, error) {
	id, err := parseObjectID(wishlistID)
	if err != nil {
		return nil, err
	}
	account, err := sessionAccount(s.accounts, accountID)(ctx)
	if err != nil {
		return nil, err
	}
	w := account.ActiveWishlist(id)
	if w == nil {
		return nil, ErrNotFound
	}
	return w, nil
}

func (s *WishlistServiceImpl) Create(ctx context.Context, accountID string, input WishlistInput) (*models.Wishlist, error) {
	name := strings.TrimSpace(input.Name)
	currency := strings.TrimSpace(input.Currency)
	if name == "" || currency == "" {
		return nil, missingFields("name", "currency")
	}
	if input.Goal < 0 {
		return nil, invalidInput("goal must not be negative")
	}
	if input.Plan != "" && !input.Plan.Valid() {
		return nil, invalidInput("plan must be daily, weekly or monthly")
	}
	importance, err := importanceOrDefault(input.Importance)
	if err != nil {
		return nil, err
	}
	for _, it := range input.Items {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}

	imageURL := input.ImageURL
	if input.Image != nil {
		imageURL = uploadImage(ctx, s.uploader, s.log, FolderWishlists, input.Image.Data, input.Image.ContentType)
	}
	items := make([]models.Item, 0, len(input.Items))
	now := time.Now().UTC()
	for _, it := range input.Items {
		items = append(items, s.newItem(ctx, it, now))
	}

	var created models.Wishlist
	_, err = mutateAccount(ctx, s.accounts, sessionAccount(s.accounts, accountID), func(account *models.Account) error {
		plan := input.Plan
		if plan == "" {
			plan = account.DefaultPlan
		}
		if plan == "" {
			plan = models.PlanDaily
		}

		w := models.Wishlist{
			ID:         primitive.NewObjectID(),
			Name:       name,
			Currency:   strings.ToUpper(currency),
			Plan:       plan,
			Goal:       input.Goal,
			Importance: importance,
			ImageURL:   imageURL,
			Items:      append(make([]models.Item, 0, len(items)), items...),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if len(w.Items) > 0 {
			w.RecomputeGoal()
		}

		account.Wishlists = append(account.Wishlists, w)
		if account.DefaultPlan == "" {
			account.DefaultPlan = plan
		}
		account.Touch(now)
		created = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *WishlistServiceImpl) Update(ctx context.Context, accountID string, update WishlistUpdate) (*models.Wishlist, error) {
	id, err := parseObjectID(update.WishlistID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, invalidInput("name must not be empty")
	}
	if update.Currency != nil && strings.TrimSpace(*update.Currency) == "" {
		return nil, invalidInput("currency must not be empty")
	}
	if update.Plan != nil && !update.Plan.Valid() {
		return nil, invalidInput("plan must be daily, weekly or monthly")
	}
	if update.Importance != nil && !update.Importance.Valid() {
		return nil, invalidInput("importance must be low, medium or high")
	}
	if update.Goal != nil && *update.Goal < 0 {
		return nil, invalidInput("goal must not be negative")
	}

	var imageURL *string
	if update.Image != nil {
		url := uploadImage(ctx, s.uploader, s.log, FolderWishlists, update.Image.Data, update.Image.ContentType)
		imageURL = &url
	} else if update.ImageURL != nil {
		imageURL = update.ImageURL
	}

	return s.mutateWishlist(ctx, accountID, id, func(w *models.Wishlist, now time.Time) error {
		if update.Name != nil {
			w.Name = strings.TrimSpace(*update.Name)
		}
		if update.Currency != nil {
			w.Currency = strings.ToUpper(strings.TrimSpace(*update.Currency))
		}
		if update.Plan != nil {
			w.Plan = *update.Plan
		}
		if update.Importance != nil {
			w.Importance = *update.Importance
		}
		if update.Goal != nil && len(w.Items) == 0 {
			w.Goal = *update.Goal
		}
		if imageURL != nil {
			w.ImageURL = *imageURL
		}
		w.UpdatedAt = now
		return nil
	})
}

func (s *WishlistServiceImpl) Delete(ctx context.Context, accountID, wishlistID string) error {
	id, err := parseObjectID(wishlistID)
	if err != nil {
		return err
	}
	_, err = mutateAccount(ctx, s.accounts, sessionAccount(s.accounts, accountID), func(account *models.Account) error {
		w := account.ActiveWishlist(id)
		if w == nil {
			return ErrNotFound
		}
		now := time.Now().UTC()
		deletedAt := now
		w.DeletedAt = &deletedAt
		w.UpdatedAt = now
		if len(account.ActiveWishlists()) == 0 {
			account.DefaultPlan = ""
		}
		account.Touch(now)
		return nil
	})
	return err
}

func (s *WishlistServiceImpl) AddItem(ctx context.Context, accountID string, item NewItem) (*models.Wishlist, error) {
	id, err := parseObjectID(item.WishlistID)
	if err != nil {
		return nil, err
	}
	if err := validateItem(item.ItemInput); err != nil {
		return nil, err
	}

	created := s.newItem(ctx, item.ItemInput, time.Now().UTC())
	return s.mutateWishlist(ctx, accountID, id, func(w *models.Wishlist, now time.Time) error {
		w.AddItem(created, now)
		return nil
	})
}

func (s *WishlistServiceImpl) UpdateItem(ctx context.Context, accountID string, update ItemUpdate) (*models.Wishlist, error) {
	id, err := parseObjectID(update.WishlistID)
	if err != nil {
		return nil, err
	}
	itemID, err := parseObjectID(update.ItemID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, invalidInput("item name must not be empty")
	}
	if update.Price != nil && helper.RoundMoney(*update.Price) <= 0 {
		return nil, invalidInput("price must be greater than zero")
	}
	if update.Importance != nil && !update.Importance.Valid() {
		return nil, invalidInput("importance must be low, medium or high")
	}

	var imageURL *string
	if update.Image != nil {
		url := uploadImage(ctx, s.uploader, s.log, FolderItems, update.Image.Data, update.Image.ContentType)
		imageURL = &url
	} else if update.ImageURL != nil {
		imageURL = update.ImageURL
	}

	return s.mutateWishlist(ctx, accountID, id, func(w *models.Wishlist, now time.Time) error {
		it := w.Item(itemID)
		if it == nil {
			return ErrNotFound
		}
		if update.Name != nil {
			it.Name = strings.TrimSpace(*update.Name)
		}
		if update.Price != nil {
			it.Price = helper.RoundMoney(*update.Price)
		}
		if update.Importance != nil {
			it.Importance = *update.Importance
		}
		if update.Description != nil {
			it.Description = *update.Description
		}
		if imageURL != nil {
			it.ImageURL = *imageURL
		}
		it.UpdatedAt = now
		w.RecomputeGoal()
		w.UpdatedAt = now
		return nil
	})
}

func (s *WishlistServiceImpl) DeleteItem(ctx context.Context, accountID, wishlistID, itemID string) (*models.Wishlist, error) {
	id, err := parseObjectID(wishlistID)
	if err != nil {
		return nil, err
	}
	itID, err := parseObjectID(itemID)
	if err != nil {
		return nil, err
	}
	return s.mutateWishlist(ctx, accountID, id, func(w *models.Wishlist, now time.Time) error {
		if !w.RemoveItem(itID, now) {
			return ErrNotFound
		}
		return nil
	})
}

func (s *WishlistServiceImpl) RecordPayment(ctx context.Context, accountID string, payment SelfPayment) (*models.Wishlist, error) {
	if payment.WishlistID == "" {
		return nil, invalidInput("wishlistId is required")
	}
	if payment.Amount <= 0 {
		return nil, invalidInput("amount must be greater than zero")
	}
	id, err := parseObjectID(payment.WishlistID)
	if err != nil {
		return nil, err
	}
	var itemID *primitive.ObjectID
	if payment.ItemID != "" {
		parsed, err := parseObjectID(payment.ItemID)
		if err != nil {
			return nil, err
		}
		itemID = &parsed
	}

	var result models.Wishlist
	_, err = mutateAccount(ctx, s.accounts, sessionAccount(s.accounts, accountID), func(account *models.Account) error {
		w := account.ActiveWishlist(id)
		if w == nil {
			return ErrNotFound
		}
		if itemID != nil && w.Item(*itemID) == nil {
			return ErrNotFound
		}

		now := time.Now().UTC()
		w.Credit(payment.Amount, now)
		account.Payments = append(account.Payments, models.Payment{
			ID:         primitive.NewObjectID(),
			WishlistID: w.ID,
			ItemID:     itemID,
			Amount:     payment.Amount,
			Name:       account.Fullname,
			Email:      account.Email,
			Source:     models.SourceSelf,
			CreatedAt:  now,
		})
		account.Touch(now)
		result = *w
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.Contributions.WithLabelValues(string(models.SourceSelf)).Inc()
	return &result, nil
}

// mutateWishlist applies fn to one active wishlist of the session account and
// returns the saved wishlist.
func (s *WishlistServiceImpl) mutateWishlist(ctx context.Context, accountID string, id primitive.ObjectID, fn func(w *models.Wishlist, now time.Time) error) (*models.Wishlist, error) {
	var result models.Wishlist
	_, err := mutateAccount(ctx, s.accounts, sessionAccount(s.accounts, accountID), func(account *models.Account) error {
		w := account.ActiveWishlist(id)
		if w == nil {
			return ErrNotFound
		}
		now := time.Now().UTC()
		if err := fn(w, now); err != nil {
			return err
		}
		account.Touch(now)
		result = *w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *WishlistServiceImpl) newItem(ctx context.Context, input ItemInput, now time.Time) models.Item {
	importance := input.Importance
	if importance == "" {
		importance = models.ImportanceMedium
	}
	imageURL := input.ImageURL
	if input.Image != nil {
		imageURL = uploadImage(ctx, s.uploader, s.log, FolderItems, input.Image.Data, input.Image.ContentType)
	}
	return models.Item{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(input.Name),
		Price:       helper.RoundMoney(input.Price),
		ImageURL:    imageURL,
		Importance:  importance,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func validateItem(item ItemInput) error {
	if strings.TrimSpace(item.Name) == "" {
		return missingFields("name")
	}
	if helper.RoundMoney(item.Price) <= 0 {
		return invalidInput("price must be greater than zero")
	}
	if item.Importance != "" && !item.Importance.Valid() {
		return invalidInput("importance must be low, medium or high")
	}
	return nil
}

func importanceOrDefault(importance models.Importance) (models.Importance, error) {
	if importance == "" {
		return models.ImportanceMedium, nil
	}
	if !importance.Valid() {
		return "", invalidInput("importance must be low, medium or high")
	}
	return importance, nil
}
