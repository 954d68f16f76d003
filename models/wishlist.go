package models

import (
	"time"

	"github.com/JayJosh846/wishy/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan is the savings cadence of a wishlist.
type Plan string

const (
	PlanDaily   Plan = "daily"
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanDaily, PlanWeekly, PlanMonthly:
		return true
	}
	return false
}

// Periods is the number of installments the savings suggestion spreads a
// goal over: thirty days, twelve weeks or three months.
func (p Plan) Periods() int {
	switch p {
	case PlanDaily:
		return 30
	case PlanWeekly:
		return 12
	case PlanMonthly:
		return 3
	}
	return 1
}

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

func (i Importance) Valid() bool {
	switch i {
	case ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	}
	return false
}

type Wishlist struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Currency     string             `json:"currency" bson:"currency"`
	Plan         Plan               `json:"plan" bson:"plan"`
	Goal         float64            `json:"goal" bson:"goal"`
	CurrentSaved float64            `json:"currentSaved" bson:"currentSaved"`
	Importance   Importance         `json:"importance" bson:"importance"`
	ImageURL     string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	IsCompleted  bool               `json:"isCompleted" bson:"isCompleted"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	DeletedAt    *time.Time         `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	Items        []Item             `json:"items" bson:"items"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type Item struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Price       float64            `json:"price" bson:"price"`
	ImageURL    string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Importance  Importance         `json:"importance" bson:"importance"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// RecomputeGoal sets Goal to the sum of the item prices. It runs after every
// change to the item set, even when that moves the goal below CurrentSaved.
func (w *Wishlist) RecomputeGoal() {
	prices := make([]float64, 0, len(w.Items))
	for _, it := range w.Items {
		prices = append(prices, it.Price)
	}
	w.Goal = utils.SumMoney(prices...)
}

// Credit adds amount to CurrentSaved. Completion is one-way: it is set the
// first time the saved amount reaches a positive goal and never cleared.
func (w *Wishlist) Credit(amount float64, now time.Time) {
	w.CurrentSaved = utils.AddMoney(w.CurrentSaved, amount)
	if !w.IsCompleted && w.Goal > 0 && w.CurrentSaved >= w.Goal {
		w.IsCompleted = true
		completedAt := now
		w.CompletedAt = &completedAt
	}
	w.UpdatedAt = now
}

// Item returns a pointer into the item slice, or nil.
func (w *Wishlist) Item(id primitive.ObjectID) *Item {
	for i := range w.Items {
		if w.Items[i].ID == id {
			return &w.Items[i]
		}
	}
	return nil
}

// AddItem appends it and recomputes the goal.
func (w *Wishlist) AddItem(it Item, now time.Time) {
	w.Items = append(w.Items, it)
	w.RecomputeGoal()
	w.UpdatedAt = now
}

// RemoveItem drops the item with the given id and recomputes the goal.
func (w *Wishlist) RemoveItem(id primitive.ObjectID, now time.Time) bool {
	for i := range w.Items {
		if w.Items[i].ID == id {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			w.RecomputeGoal()
			w.UpdatedAt = now
			return true
		}
	}
	return false
}

// Installment is the suggested amount to put aside per plan period.
func (w *Wishlist) Installment() float64 {
	return utils.DivideMoney(w.Goal, w.Plan.Periods())
}
