package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Api is a registered tenant. Each tenant owns a namespace of profiles and
// a storage subtree keyed by its secret token.
type Api struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string        `bson:"name" json:"name"`
	Token     string        `bson:"token" json:"-"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}
