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

var ErrImageNotFound = errors.New("image not found")

type ImageRepository struct {
	collection *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{collection: db.Collection("images")}
}

func (r *ImageRepository) Insert(ctx context.Context, image *models.Image) error {
	if image.ID.IsZero() {
		image.ID = bson.NewObjectID()
	}
	now := time.Now().UTC()
	image.CreatedAt = now
	image.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, image)
	return err
}

func (r *ImageRepository) findOne(ctx context.Context, filter bson.M) (*models.Image, error) {
	var image models.Image
	err := r.collection.FindOne(ctx, filter).Decode(&image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Image, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindActiveByName resolves the :image_name path segment, scoped to the
// current tenant.
func (r *ImageRepository) FindActiveByName(ctx context.Context, apiID bson.ObjectID, name string) (*models.Image, error) {
	return r.findOne(ctx, bson.M{"api": apiID, "deleted": false, "name": name})
}

func (r *ImageRepository) FindActiveByOwnerAndName(ctx context.Context, ownerID bson.ObjectID, name string) (*models.Image, error) {
	return r.findOne(ctx, bson.M{"owner": ownerID, "deleted": false, "name": name})
}

func (r *ImageRepository) ListActiveByOwner(ctx context.Context, ownerID bson.ObjectID) ([]*models.Image, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"owner": ownerID, "deleted": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []*models.Image
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) ApplyUpdate(ctx context.Context, id bson.ObjectID, fields map[string]any) (*models.Image, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Image
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Unlink detaches the image from its owner. The stored bytes are left in
// place; the orphan sweep erases them after the retention window.
func (r *ImageRepository) Unlink(ctx context.Context, id bson.ObjectID) error {
	now := time.Now().UTC()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"owner":      nil,
		"unlinkedAt": now,
		"updatedAt":  now,
	}})
	return err
}

// ListOrphans returns non-deleted images unlinked before the cutoff.
func (r *ImageRepository) ListOrphans(ctx context.Context, before time.Time) ([]*models.Image, error) {
	filter := bson.M{
		"owner":      nil,
		"deleted":    false,
		"unlinkedAt": bson.M{"$ne": nil, "$lte": before},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []*models.Image
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) MarkDeleted(ctx context.Context, id bson.ObjectID) error {
	now := time.Now().UTC()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"deleted":   true,
		"deletedAt": now,
		"updatedAt": now,
	}})
	return err
}

func (r *ImageRepository) List(ctx context.Context, limit, offset int) ([]*models.Image, error) {
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []*models.Image
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}
