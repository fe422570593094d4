package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

// TableStore keeps one collection per registered entity. The row id is
// stored as _id.
type TableStore struct {
	db *mongo.Database
}

func NewTableStore(db *mongo.Database) *TableStore {
	return &TableStore{db: db}
}

func (s *TableStore) col(d *registry.Descriptor) *mongo.Collection {
	return s.db.Collection(d.Collection)
}

func (s *TableStore) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *TableStore) Insert(ctx context.Context, d *registry.Descriptor, doc domain.Document) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.col(d).InsertOne(ctx, encode(doc))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicate(d, err)
		}
		return domain.Upstream("mongo insert "+string(d.Entity), err)
	}
	return nil
}

func (s *TableStore) Get(ctx context.Context, d *registry.Descriptor, id string) (domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var raw bson.M
	err := s.col(d).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
		}
		return nil, domain.Upstream("mongo get "+string(d.Entity), err)
	}
	return decode(d, raw), nil
}

func (s *TableStore) Find(ctx context.Context, d *registry.Descriptor, q domain.Query) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: domain.FieldCreatedDate, Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.col(d).Find(ctx, filter(q.Conditions), opts)
	if err != nil {
		return nil, domain.Upstream("mongo find "+string(d.Entity), err)
	}
	defer cursor.Close(ctx)

	out := []domain.Document{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, domain.Upstream("mongo decode "+string(d.Entity), err)
		}
		out = append(out, decode(d, raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, domain.Upstream("mongo cursor "+string(d.Entity), err)
	}
	return out, nil
}

func (s *TableStore) Count(ctx context.Context, d *registry.Descriptor, conds []domain.Condition) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := s.col(d).CountDocuments(ctx, filter(conds))
	if err != nil {
		return 0, domain.Upstream("mongo count "+string(d.Entity), err)
	}
	return n, nil
}

func (s *TableStore) Exists(ctx context.Context, d *registry.Descriptor, field string, value any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := s.col(d).CountDocuments(ctx, filter([]domain.Condition{domain.Eq(field, value)}), options.Count().SetLimit(1))
	if err != nil {
		return false, domain.Upstream("mongo exists "+string(d.Entity), err)
	}
	return n > 0, nil
}

func (s *TableStore) Update(ctx context.Context, d *registry.Descriptor, id string, changes domain.Document) (domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := encode(changes)
	delete(set, "_id")

	var raw bson.M
	err := s.col(d).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
		case mongo.IsDuplicateKeyError(err):
			return nil, duplicate(d, err)
		}
		return nil, domain.Upstream("mongo update "+string(d.Entity), err)
	}
	return decode(d, raw), nil
}

func (s *TableStore) Delete(ctx context.Context, d *registry.Descriptor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.col(d).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.Upstream("mongo delete "+string(d.Entity), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	return nil
}

// EnsureIndexes creates the unique, ordering and ownership indexes of every
// registered collection.
func (s *TableStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, d := range registry.All() {
		indexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: domain.FieldCreatedDate, Value: 1}, {Key: "_id", Value: 1}}},
		}
		for _, f := range d.UniqueFields() {
			if f == domain.FieldID {
				continue
			}
			indexes = append(indexes, mongo.IndexModel{
				Keys:    bson.D{{Key: f, Value: 1}},
				Options: options.Index().SetUnique(true).SetName(f + "_1"),
			})
		}
		if d.Owner != nil {
			indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: d.Owner.Field, Value: 1}}})
		}
		if _, err := s.col(d).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("mongo indexes %s: %w", d.Collection, err)
		}
	}
	return nil
}

// duplicate names the unique field behind a duplicate key error.
func duplicate(d *registry.Descriptor, err error) error {
	msg := err.Error()
	for _, f := range d.UniqueFields() {
		if f != domain.FieldID && strings.Contains(msg, "index: "+f+"_1") {
			return domain.NewValidationError(f, "already exists")
		}
	}
	return domain.NewValidationError(domain.FieldID, "already exists")
}
