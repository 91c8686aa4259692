package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petland/petcare-console/internal/core/ports"
)

const stateCollection = "client_state"

// StateStore keeps the persisted session entries in MongoDB, one document
// per key with _id "<namespace>:<key>".
type StateStore struct {
	coll      *mongo.Collection
	namespace string
}

var _ ports.StateStore = (*StateStore)(nil)

func NewStateStore(db *mongo.Database, namespace string) *StateStore {
	return &StateStore{coll: db.Collection(stateCollection), namespace: namespace}
}

type stateDoc struct {
	ID        string `bson:"_id"`
	Namespace string `bson:"namespace"`
	Key       string `bson:"key"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	var doc stateDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo state get %q: %w", key, err)
	}
	return doc.Value, true, nil
}

func (s *StateStore) Set(ctx context.Context, key, value string) error {
	doc := stateDoc{
		ID:        s.id(key),
		Namespace: s.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().Unix(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo state set %q: %w", key, err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = s.id(k)
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("mongo state delete: %w", err)
	}
	return nil
}

func (s *StateStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *StateStore) id(key string) string {
	return s.namespace + ":" + key
}
