package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"profilehost/api/internal/models"
)

var ErrAPINotFound = errors.New("api not found")

// IsDuplicate reports whether a store write failed on a unique index.
// Duplicate-key rejections are the service's only guard against
// concurrent writers racing on the same identifying field.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

type ApiRepository struct {
	collection *mongo.Collection
}

func NewApiRepository(db *mongo.Database) *ApiRepository {
	return &ApiRepository{collection: db.Collection("apis")}
}

func (r *ApiRepository) Insert(ctx context.Context, api *models.Api) error {
	if api.ID.IsZero() {
		api.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	api.CreatedAt = now
	api.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, api)
	return err
}

func (r *ApiRepository) FindByToken(ctx context.Context, token string) (*models.Api, error) {
	var api models.Api
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&api)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAPINotFound
		}
		return nil, err
	}
	return &api, nil
}

func (r *ApiRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Api, error) {
	var api models.Api
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&api)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAPINotFound
		}
		return nil, err
	}
	return &api, nil
}

func (r *ApiRepository) List(ctx context.Context, limit, offset int) ([]*models.Api, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var apis []*models.Api
	if err := cursor.All(ctx, &apis); err != nil {
		return nil, err
	}
	return apis, nil
}
