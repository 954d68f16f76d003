package models

import (
	"time"

	"github.com/JayJosh846/wishy/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is the single document stored per registered user. Wishlists,
// payments and the wallet ledger live embedded in it.
type Account struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id"`
	Email           string             `json:"email" bson:"email"`
	Password        string             `json:"-" bson:"password"`
	Fullname        string             `json:"fullname" bson:"fullname"`
	Nickname        string             `json:"nickname,omitempty" bson:"nickname,omitempty"`
	PhoneNumber     string             `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	CountryCode     string             `json:"countryCode,omitempty" bson:"countryCode,omitempty"`
	AccountNumber   string             `json:"accountNumber,omitempty" bson:"accountNumber,omitempty"`
	AccountName     string             `json:"accountName,omitempty" bson:"accountName,omitempty"`
	BankName        string             `json:"bankName,omitempty" bson:"bankName,omitempty"`
	ThankYouMessage string             `json:"thankYouMessage,omitempty" bson:"thankYouMessage,omitempty"`
	ShareToken      string             `json:"shareToken,omitempty" bson:"shareToken,omitempty"`
	DefaultPlan     Plan               `json:"defaultPlan,omitempty" bson:"defaultPlan,omitempty"`

	Wishlists          []Wishlist          `json:"wishlists" bson:"wishlists"`
	Payments           []Payment           `json:"payments" bson:"payments"`
	WalletBalance      float64             `json:"walletBalance" bson:"walletBalance"`
	WalletTransactions []WalletTransaction `json:"walletTransactions" bson:"walletTransactions"`
	Donations          []Donation          `json:"donations" bson:"donations"`

	// Version is the optimistic concurrency token checked on every save.
	Version   int64     `json:"-" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type PaymentSource string

const (
	SourceSelf     PaymentSource = "self"
	SourceExternal PaymentSource = "external"
)

// Payment is an immutable record of money credited toward a wishlist.
type Payment struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id"`
	WishlistID primitive.ObjectID  `json:"wishlistId" bson:"wishlistId"`
	ItemID     *primitive.ObjectID `json:"itemId,omitempty" bson:"itemId,omitempty"`
	Amount     float64             `json:"amount" bson:"amount"`
	Name       string              `json:"name" bson:"name"`
	Email      string              `json:"email" bson:"email"`
	ImageURL   string              `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Source     PaymentSource       `json:"source" bson:"source"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
}

type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionWithdraw TransactionType = "withdraw"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// WalletTransaction is an entry of the append-only wallet log. Reference is
// unique per account and doubles as the idempotency key.
type WalletTransaction struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Type      TransactionType    `json:"type" bson:"type"`
	Amount    float64            `json:"amount" bson:"amount"`
	Reference string             `json:"reference" bson:"reference"`
	Status    TransactionStatus  `json:"status" bson:"status"`
	Meta      bson.M             `json:"meta,omitempty" bson:"meta,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Donation is the legacy receipt log kept alongside payments.
type Donation struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	ImageData string             `json:"imageData" bson:"imageData"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// NewAccount returns an account with empty embedded logs.
func NewAccount(email, passwordHash, fullname string, now time.Time) *Account {
	return &Account{
		ID:                 primitive.NewObjectID(),
		Email:              email,
		Password:           passwordHash,
		Fullname:           fullname,
		Wishlists:          make([]Wishlist, 0),
		Payments:           make([]Payment, 0),
		WalletTransactions: make([]WalletTransaction, 0),
		Donations:          make([]Donation, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ActiveWishlists returns the wishlists that have not been soft-deleted, in
// insertion order.
func (a *Account) ActiveWishlists() []Wishlist {
	active := make([]Wishlist, 0, len(a.Wishlists))
	for _, w := range a.Wishlists {
		if w.DeletedAt == nil {
			active = append(active, w)
		}
	}
	return active
}

// Wishlist returns a pointer into the account's wishlist slice, or nil.
func (a *Account) Wishlist(id primitive.ObjectID) *Wishlist {
	for i := range a.Wishlists {
		if a.Wishlists[i].ID == id {
			return &a.Wishlists[i]
		}
	}
	return nil
}

// ActiveWishlist is Wishlist restricted to non-deleted wishlists.
func (a *Account) ActiveWishlist(id primitive.ObjectID) *Wishlist {
	w := a.Wishlist(id)
	if w == nil || w.DeletedAt != nil {
		return nil
	}
	return w
}

// TotalBudget sums the goals of the active wishlists.
func (a *Account) TotalBudget() float64 {
	goals := make([]float64, 0, len(a.Wishlists))
	for _, w := range a.ActiveWishlists() {
		goals = append(goals, w.Goal)
	}
	return utils.SumMoney(goals...)
}

// WalletTransaction looks a transaction up by reference.
func (a *Account) WalletTransaction(reference string) *WalletTransaction {
	for i := range a.WalletTransactions {
		if a.WalletTransactions[i].Reference == reference {
			return &a.WalletTransactions[i]
		}
	}
	return nil
}

// Deposit looks a deposit up by its gateway reference.
func (a *Account) Deposit(reference string) *WalletTransaction {
	for i := range a.WalletTransactions {
		tx := &a.WalletTransactions[i]
		if tx.Reference == reference && tx.Type == TransactionDeposit {
			return tx
		}
	}
	return nil
}

// HasPayoutDetails reports whether a withdrawal destination is on file.
func (a *Account) HasPayoutDetails() bool {
	return a.AccountNumber != "" && a.BankName != ""
}

// Touch bumps UpdatedAt.
func (a *Account) Touch(now time.Time) {
	a.UpdatedAt = now
}
