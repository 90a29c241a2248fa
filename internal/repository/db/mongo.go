package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoConnectTimeout = 10 * time.Second

// ConnectMongo dials MongoDB, verifies the connection and ensures the indexes
// the repositories rely on. The caller owns the returned client.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	if err := ensureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

// ensureMongoIndexes creates the unique email index and the timestamp index.
// CreateOne is idempotent for identical specs.
func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection("accounts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return fmt.Errorf("create accounts email index: %w", err)
	}
	if _, err := db.Collection("readings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("timestamp_id_desc"),
	}); err != nil {
		return fmt.Errorf("create readings timestamp index: %w", err)
	}
	return nil
}
