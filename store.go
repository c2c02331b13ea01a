package mixer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const photoCollectionName = "photos"

// PhotoStore is the document store of photo metadata records. The store
// is the sole owner of record lifecycle; callers only hold read-only
// projections.
type PhotoStore interface {
	AddPhoto(ctx context.Context, photo PhotoRecord) (string, error)
	GetPhoto(ctx context.Context, id string) (PhotoRecord, error)
	ListPhotos(ctx context.Context, filter PhotoFilter) ([]PhotoRecord, error)
	Subscribe(ctx context.Context, filter PhotoFilter) (*Subscription, error)
}

func NewMongodbPhotoStore(ctx context.Context, mongodbURI, dbName string) (*MongodbPhotoStore, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongodbURI))
	if err != nil {
		return nil, err
	}

	db := mongoClient.Database(dbName)
	photoCollection := db.Collection(photoCollectionName)

	return &MongodbPhotoStore{
		dbName:          dbName,
		mongoClient:     mongoClient,
		photoCollection: photoCollection,
	}, nil
}

type MongodbPhotoStore struct {
	dbName          string
	mongoClient     *mongo.Client
	photoCollection *mongo.Collection
}

type photoDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	URL       string             `bson:"url"`
	CreatedAt time.Time          `bson:"createdAt"`
	Type      string             `bson:"type"`
}

func (d photoDocument) record() PhotoRecord {
	return PhotoRecord{
		ID:        d.ID.Hex(),
		URL:       d.URL,
		CreatedAt: d.CreatedAt,
		Type:      d.Type,
	}
}

// EnsureIndexes creates the compound index backing the feed queries.
func (s *MongodbPhotoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.photoCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

// AddPhoto persists a new photo record and returns its store-assigned ID.
func (s *MongodbPhotoStore) AddPhoto(ctx context.Context, photo PhotoRecord) (string, error) {
	r, err := s.photoCollection.InsertOne(ctx, photoDocument{
		URL:       photo.URL,
		CreatedAt: photo.CreatedAt,
		Type:      photo.Type,
	})
	if err != nil {
		return "", err
	}

	id := r.InsertedID.(primitive.ObjectID).Hex()
	logrus.WithField("photoID", id).WithField("type", photo.Type).Debug("photo record added")

	return id, nil
}

// GetPhoto is a point lookup by document identifier.
func (s *MongodbPhotoStore) GetPhoto(ctx context.Context, id string) (PhotoRecord, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return PhotoRecord{}, ErrPhotoNotFound
	}

	var doc photoDocument
	if err := s.photoCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return PhotoRecord{}, ErrPhotoNotFound
		}
		return PhotoRecord{}, err
	}

	return doc.record(), nil
}

// ListPhotos returns photos matching the filter ordered by createdAt
// descending. A zero limit returns the whole result set.
func (s *MongodbPhotoStore) ListPhotos(ctx context.Context, filter PhotoFilter) ([]PhotoRecord, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(filter.Limit)
	}

	cursor, err := s.photoCollection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	photos := []PhotoRecord{}
	for cursor.Next(ctx) {
		var doc photoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		photos = append(photos, doc.record())
	}

	return photos, cursor.Err()
}
