package repository

import (
	"context"
	"database/sql"
	"errors"

	"energisense/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail is returned by AccountRepo.Create when the unique email
// index rejects the insert.
var ErrDuplicateEmail = errors.New("email already registered")

// ReadingRepo persists readings. Readings are append-only.
type ReadingRepo interface {
	Insert(ctx context.Context, r models.Reading) error
	// LatestDesc returns at most limit readings, newest first.
	LatestDesc(ctx context.Context, limit int) ([]models.Reading, error)
}

type AccountRepo interface {
	Create(ctx context.Context, a models.Account) error
	// GetByEmail returns (nil, nil) if no account matches.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Count(ctx context.Context) (int64, error)
}

type Repository struct {
	Readings ReadingRepo
	Accounts AccountRepo
}

// NewRepository wires the SQLite-backed repositories.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Readings: NewReadingSQLite(db),
		Accounts: NewAccountSQLite(db),
	}
}

// NewMongoRepository wires the MongoDB-backed repositories.
func NewMongoRepository(db *mongo.Database) *Repository {
	return &Repository{
		Readings: NewReadingMongo(db),
		Accounts: NewAccountMongo(db),
	}
}
