package cache

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/log"
)

// CacheStore keeps small keyed string states; the feed prefetcher uses
// it to remember which photo URLs have already been warmed.
type CacheStore interface {
	SaveData(ctx context.Context, cacheKey, value string) error
	GetData(ctx context.Context, cacheKey string) (string, error)
}

type MongoDBCacheStore struct {
	dbName               string
	mongoClient          *mongo.Client
	imageCacheCollection *mongo.Collection
}

const (
	imageCacheCollectionName = "image_caches"
)

func NewMongoDBCacheStore(ctx context.Context, mongodbURI, dbName string) (*MongoDBCacheStore, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongodbURI))
	if err != nil {
		return nil, err
	}

	db := mongoClient.Database(dbName)
	imageCacheCollection := db.Collection(imageCacheCollectionName)

	return &MongoDBCacheStore{
		dbName:               dbName,
		mongoClient:          mongoClient,
		imageCacheCollection: imageCacheCollection,
	}, nil
}

// SaveData insert or update the value for the cacheKey
func (s *MongoDBCacheStore) SaveData(ctx context.Context, cacheKey, value string) error {
	r, err := s.imageCacheCollection.UpdateOne(ctx,
		bson.M{"key": cacheKey},
		bson.M{"$set": bson.M{"key": cacheKey, "data": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	if r.MatchedCount == 0 && r.UpsertedCount == 0 {
		log.Warn("cache is not added or updated", zap.String("key", cacheKey))
	}

	return nil
}

// GetData get the data by cacheKey
func (s *MongoDBCacheStore) GetData(ctx context.Context, cacheKey string) (string, error) {
	var info struct {
		Key  string `bson:"key"`
		Data string `bson:"data"`
	}

	r := s.imageCacheCollection.FindOne(ctx,
		bson.M{
			"key": cacheKey,
		},
	)
	if err := r.Err(); err != nil {
		return "", err
	}

	if err := r.Decode(&info); err != nil {
		return "", err
	}

	return info.Data, nil
}
