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

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{collection: db.Collection("users")}
}

func (r *ProfileRepository) Insert(ctx context.Context, profile *models.Profile) error {
	if profile.ID.IsZero() {
		profile.ID = bson.NewObjectID()
	}
	if profile.Images == nil {
		profile.Images = []bson.ObjectID{}
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, profile)
	return err
}

func (r *ProfileRepository) findOne(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByToken resolves a bearer credential. Tokens are globally unique,
// so the lookup is not tenant-scoped.
func (r *ProfileRepository) FindByToken(ctx context.Context, token string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"token": token, "deleted": false})
}

func (r *ProfileRepository) FindActiveByToken(ctx context.Context, apiID bson.ObjectID, token string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"api": apiID, "deleted": false, "token": token})
}

func (r *ProfileRepository) FindActiveByUsername(ctx context.Context, apiID bson.ObjectID, username string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"api": apiID, "deleted": false, "username": username})
}

func (r *ProfileRepository) FindActiveByEmail(ctx context.Context, apiID bson.ObjectID, email string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"api": apiID, "deleted": false, "email": email})
}

func (r *ProfileRepository) ListActiveByAPI(ctx context.Context, apiID bson.ObjectID) ([]*models.Profile, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"api": apiID, "deleted": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []*models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ExistsActive reports whether a non-deleted profile of the tenant already
// holds the email or the username.
func (r *ProfileRepository) ExistsActive(ctx context.Context, apiID bson.ObjectID, email, username string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"api": apiID, "deleted": false, "email": email},
		bson.M{"api": apiID, "deleted": false, "username": username},
	}}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApplyUpdate sets the given dotted-path fields and returns the updated
// document.
func (r *ProfileRepository) ApplyUpdate(ctx context.Context, id bson.ObjectID, fields map[string]any) (*models.Profile, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Profile
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (r *ProfileRepository) SoftDelete(ctx context.Context, id bson.ObjectID) error {
	now := time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"deleted":   true,
		"deletedAt": now,
		"updatedAt": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) PushImage(ctx context.Context, profileID, imageID bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": profileID}, bson.M{
		"$push": bson.M{"images": imageID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}

func (r *ProfileRepository) PullImage(ctx context.Context, profileID, imageID bson.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": profileID}, bson.M{
		"$pull": bson.M{"images": imageID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}
