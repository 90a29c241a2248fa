package repository

import (
	"errors"
	"testing"
	"time"

	"energisense/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestReadingMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewReadingMongo(mt.DB)
		err := repo.Insert(ctx(mt.T), models.Reading{ID: "r1", Value: 42.5, Type: "kWh", Timestamp: time.Now()})
		if err != nil {
			mt.Fatalf("Insert: %v", err)
		}
	})

	mt.Run("latest desc", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + ReadingsCollection
		t2 := time.Date(2025, 1, 1, 0, 0, 2, 0, time.UTC)
		t1 := time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "b"}, {Key: "value", Value: 2.0}, {Key: "type", Value: "kWh"}, {Key: "timestamp", Value: t2}},
			bson.D{{Key: "_id", Value: "a"}, {Key: "value", Value: 1.0}, {Key: "type", Value: "kWh"}, {Key: "timestamp", Value: t1}},
		)
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		got, err := NewReadingMongo(mt.DB).LatestDesc(ctx(mt.T), 50)
		if err != nil {
			mt.Fatalf("LatestDesc: %v", err)
		}
		if len(got) != 2 || got[0].ID != "b" || got[1].Value != 1.0 || !got[0].Timestamp.Equal(t2) {
			mt.Fatalf("unexpected readings: %+v", got)
		}

		// same-millisecond readings fall back to the time-ordered id
		sort := mt.GetStartedEvent().Command.Lookup("sort").Document()
		keys, err := sort.Elements()
		if err != nil {
			mt.Fatalf("sort document: %v", err)
		}
		if len(keys) != 2 || keys[0].Key() != "timestamp" || keys[1].Key() != "_id" {
			mt.Fatalf("sort keys: got %v, want timestamp then _id", keys)
		}
	})
}

func TestAccountMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: accounts index: uniq_email",
		}))
		err := NewAccountMongo(mt.DB).Create(ctx(mt.T), models.Account{ID: "1", Email: "a@example.com", Role: models.RoleUser})
		if !errors.Is(err, ErrDuplicateEmail) {
			mt.Fatalf("got %v, want ErrDuplicateEmail", err)
		}
	})

	mt.Run("get by email found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + AccountsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "1"},
			{Key: "email", Value: "a@example.com"},
			{Key: "password_hash", Value: "h"},
			{Key: "role", Value: "admin"},
		}))
		a, err := NewAccountMongo(mt.DB).GetByEmail(ctx(mt.T), "a@example.com")
		if err != nil {
			mt.Fatalf("GetByEmail: %v", err)
		}
		if a == nil || a.Role != models.RoleAdmin || a.PasswordHash != "h" {
			mt.Fatalf("unexpected account: %+v", a)
		}
	})

	mt.Run("get by email missing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + AccountsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		a, err := NewAccountMongo(mt.DB).GetByEmail(ctx(mt.T), "nobody@example.com")
		if err != nil || a != nil {
			mt.Fatalf("expected (nil, nil), got (%+v, %v)", a, err)
		}
	})

	mt.Run("count", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + AccountsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))
		n, err := NewAccountMongo(mt.DB).Count(ctx(mt.T))
		if err != nil {
			mt.Fatalf("Count: %v", err)
		}
		if n != 3 {
			mt.Fatalf("count: got %d, want 3", n)
		}
	})
}
