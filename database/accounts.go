package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/JayJosh846/wishy/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoAccountStore struct {
	accountCollection *mongo.Collection
}

func NewMongoAccountStore(accountCollection *mongo.Collection) *MongoAccountStore {
	return &MongoAccountStore{accountCollection: accountCollection}
}

func (s *MongoAccountStore) Create(ctx context.Context, account *models.Account) error {
	account.Version = 1
	_, err := s.accountCollection.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *MongoAccountStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoAccountStore) FindByNickname(ctx context.Context, nickname string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"nickname": nickname})
}

func (s *MongoAccountStore) FindByShareToken(ctx context.Context, token string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"shareToken": token})
}

// FindByDepositReference loads the account holding the deposit with the given
// reference. Withdrawals carrying the same key are not matched.
func (s *MongoAccountStore) FindByDepositReference(ctx context.Context, reference string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"walletTransactions": bson.M{"$elemMatch": bson.M{
		"reference": reference,
		"type":      models.TransactionDeposit,
	}}})
}

// Save replaces the document only if its stored version still equals the
// version that was loaded.
func (s *MongoAccountStore) Save(ctx context.Context, account *models.Account) error {
	next := *account
	next.Version = account.Version + 1

	filter := bson.M{"_id": account.ID, "version": account.Version}
	result, err := s.accountCollection.ReplaceOne(ctx, filter, &next)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("replace account: %w", err)
	}
	if result.MatchedCount != 1 {
		return ErrConflict
	}
	account.Version = next.Version
	return nil
}

func (s *MongoAccountStore) findOne(ctx context.Context, query bson.M) (*models.Account, error) {
	var account models.Account
	err := s.accountCollection.FindOne(ctx, query).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

type MongoOtpStore struct {
	otpCollection *mongo.Collection
}

func NewMongoOtpStore(otpCollection *mongo.Collection) *MongoOtpStore {
	return &MongoOtpStore{otpCollection: otpCollection}
}

func (s *MongoOtpStore) Create(ctx context.Context, session *models.OtpSession) error {
	_, err := s.otpCollection.InsertOne(ctx, session)
	return err
}

func (s *MongoOtpStore) Get(ctx context.Context, id string) (*models.OtpSession, error) {
	var session models.OtpSession
	err := s.otpCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find otp session: %w", err)
	}
	return &session, nil
}

func (s *MongoOtpStore) IncrementAttempts(ctx context.Context, id string) error {
	filter := bson.D{primitive.E{Key: "_id", Value: id}}
	update := bson.D{
		primitive.E{
			Key: "$inc",
			Value: bson.D{
				primitive.E{Key: "attempts", Value: 1},
			},
		},
	}
	result, err := s.otpCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoOtpStore) Delete(ctx context.Context, id string) error {
	_, err := s.otpCollection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
