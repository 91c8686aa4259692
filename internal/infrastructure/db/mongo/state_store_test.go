package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestStateStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "petcare." + stateCollection

	mt.Run("get existing entry", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "petcare:token"},
			{Key: "key", Value: "token"},
			{Key: "value", Value: "t1"},
		}))

		v, ok, err := store.Get(context.Background(), "token")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !ok || v != "t1" {
			t.Fatalf("expected t1, got %q (found=%v)", v, ok)
		}
	})

	mt.Run("get missing entry", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, ok, err := store.Get(context.Background(), "user")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if ok {
			t.Fatalf("expected missing entry")
		}
	})

	mt.Run("set upserts", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "petcare:token"}}}},
		))

		if err := store.Set(context.Background(), "token", "t1"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	})

	mt.Run("set surfaces write errors", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		if err := store.Set(context.Background(), "token", "t1"); err == nil {
			t.Fatalf("expected error")
		}
	})

	mt.Run("delete removes all keys", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		if err := store.Delete(context.Background(), "token", "user"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
	})

	mt.Run("delete without keys is a no-op", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		if err := store.Delete(context.Background()); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
	})

	mt.Run("command errors are wrapped", func(mt *mtest.T) {
		store := NewStateStore(mt.DB, "petcare")
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		_, _, err := store.Get(context.Background(), "token")
		var cmdErr mongo.CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Code != 13 {
			t.Fatalf("expected wrapped command error, got %v", err)
		}
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := EnsureIndexes(context.Background(), mt.DB); err != nil {
			t.Fatalf("ensure indexes failed: %v", err)
		}
	})
}
