package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deanDev5200/web-aspirasi/internal/models"
)

type aspirasiDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Nama        string             `bson:"nama"`
	Kelas       string             `bson:"kelas"`
	Aspirasi    string             `bson:"aspirasi"`
	Timestamp   time.Time          `bson:"timestamp"`
	Status      string             `bson:"status"`
	IsAnonymous bool               `bson:"isAnonymous"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d aspirasiDoc) model() models.Aspirasi {
	return models.Aspirasi{
		ID:          d.ID.Hex(),
		Nama:        d.Nama,
		Kelas:       d.Kelas,
		Aspirasi:    d.Aspirasi,
		Timestamp:   d.Timestamp.UTC(),
		Status:      models.Status(d.Status),
		IsAnonymous: d.IsAnonymous,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// MongoAspirasiRepo stores submissions in a MongoDB collection.
type MongoAspirasiRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and verifies the deployment is reachable.
func OpenMongo(ctx context.Context, uri, database string) (*MongoAspirasiRepo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return &MongoAspirasiRepo{
		client: client,
		coll:   client.Database(database).Collection(AspirasiCollection),
	}, nil
}

func (r *MongoAspirasiRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{
			{Key: "nama", Value: "text"},
			{Key: "kelas", Value: "text"},
			{Key: "aspirasi", Value: "text"},
		}},
	})
	if err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	return nil
}

func (r *MongoAspirasiRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoAspirasiRepo) Create(ctx context.Context, a *models.Aspirasi) error {
	doc := aspirasiDoc{
		ID:          primitive.NewObjectID(),
		Nama:        a.Nama,
		Kelas:       a.Kelas,
		Aspirasi:    a.Aspirasi,
		Timestamp:   a.Timestamp,
		Status:      string(a.Status),
		IsAnonymous: a.IsAnonymous,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert: %w", err)
	}
	a.ID = doc.ID.Hex()
	return nil
}

func (r *MongoAspirasiRepo) FindByID(ctx context.Context, id string) (*models.Aspirasi, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc aspirasiDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: find %s: %w", id, err)
	}
	a := doc.model()
	return &a, nil
}

func (r *MongoAspirasiRepo) Find(ctx context.Context, f models.Filter, skip, limit int) ([]models.Aspirasi, int, error) {
	filter := mongoFilter(f)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: count: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo: find: %w", err)
	}
	var docs []aspirasiDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("mongo: decode: %w", err)
	}

	items := make([]models.Aspirasi, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.model())
	}
	return items, int(total), nil
}

func (r *MongoAspirasiRepo) Count(ctx context.Context, f models.Filter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("mongo: count: %w", err)
	}
	return int(n), nil
}

func (r *MongoAspirasiRepo) UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Aspirasi, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc aspirasiDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": updatedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: update %s: %w", id, err)
	}
	a := doc.model()
	return &a, nil
}

func (r *MongoAspirasiRepo) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("mongo: delete %s: %w", id, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoAspirasiRepo) Exists(ctx context.Context, nama, aspirasi string, ts time.Time) (bool, error) {
	n, err := r.coll.CountDocuments(ctx,
		bson.M{"nama": nama, "aspirasi": aspirasi, "timestamp": ts},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("mongo: exists: %w", err)
	}
	return n > 0, nil
}

func (r *MongoAspirasiRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// mongoFilter translates f into a MongoDB filter document. Search uses the
// collection's text index.
func mongoFilter(f models.Filter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		if f.To != nil {
			rng["$lte"] = *f.To
		}
		filter["timestamp"] = rng
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Anonymous != nil {
		filter["isAnonymous"] = *f.Anonymous
	}
	return filter
}
