package repository

import (
	"context"
	"errors"
	"fmt"

	"energisense/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountMongo stores accounts in a MongoDB collection with a unique index on email.
type AccountMongo struct {
	col *mongo.Collection
}

func NewAccountMongo(db *mongo.Database) *AccountMongo {
	return &AccountMongo{col: db.Collection(AccountsCollection)}
}

var _ AccountRepo = (*AccountMongo)(nil)

func (r *AccountMongo) Create(ctx context.Context, a models.Account) error {
	a.CreatedAt = a.CreatedAt.UTC()
	if _, err := r.col.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("mongo insert account %q: %w", a.Email, err)
	}
	return nil
}

func (r *AccountMongo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo find account %q: %w", email, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *AccountMongo) List(ctx context.Context) ([]models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find accounts: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo decode accounts: %w", err)
	}
	return out, nil
}

func (r *AccountMongo) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongo count accounts: %w", err)
	}
	return n, nil
}
