package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AccountsCollection = "Accounts"
	OtpsCollection     = "Otps"
)

// ConnectToMongoDB dials and pings the server.
func ConnectToMongoDB(ctx context.Context, uri string, log *logrus.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Info("Connected to MongoDB")
	return client, nil
}

func GetCollection(client *mongo.Client, databaseName, collectionName string) *mongo.Collection {
	return client.Database(databaseName).Collection(collectionName)
}

func CloseMongoDBConnection(client *mongo.Client, log *logrus.Logger) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Warn("Disconnect from MongoDB failed")
		return
	}
	log.Info("Disconnected from MongoDB")
}

// EnsureIndexes creates the uniqueness and lookup indexes the stores rely on.
func EnsureIndexes(ctx context.Context, accounts, otps *mongo.Collection) error {
	_, err := accounts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "nickname", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "shareToken", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{
			{Key: "walletTransactions.reference", Value: 1},
			{Key: "walletTransactions.type", Value: 1},
		}},
	})
	if err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}

	_, err = otps.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("otp indexes: %w", err)
	}
	return nil
}
