package repository

import (
	"context"
	"fmt"

	"energisense/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names; repository/db creates their indexes.
const (
	ReadingsCollection = "readings"
	AccountsCollection = "accounts"
)

// ReadingMongo stores readings in a MongoDB collection.
type ReadingMongo struct {
	col *mongo.Collection
}

func NewReadingMongo(db *mongo.Database) *ReadingMongo {
	return &ReadingMongo{col: db.Collection(ReadingsCollection)}
}

var _ ReadingRepo = (*ReadingMongo)(nil)

func (r *ReadingMongo) Insert(ctx context.Context, rd models.Reading) error {
	rd.Timestamp = rd.Timestamp.UTC()
	if _, err := r.col.InsertOne(ctx, rd); err != nil {
		return fmt.Errorf("mongo insert reading %s: %w", rd.ID, err)
	}
	return nil
}

func (r *ReadingMongo) LatestDesc(ctx context.Context, limit int) ([]models.Reading, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find latest readings: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Reading, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode readings: %w", err)
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}
