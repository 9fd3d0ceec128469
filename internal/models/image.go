package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Image is an uploaded file owned by a profile. The generated name is
// globally unique; StorageKey is the directory key inside the blob store
// (<api token>/<profile token>/images). Unlinking sets Owner to nil without
// touching the stored bytes.
type Image struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	APIID        bson.ObjectID  `bson:"api" json:"-"`
	OwnerID      *bson.ObjectID `bson:"owner" json:"-"`
	Name         string         `bson:"name" json:"name"`
	OriginalName string         `bson:"original_name" json:"original_name"`
	MimeType     string         `bson:"mimetype" json:"mimetype"`
	CustomData   any            `bson:"custom_data" json:"custom_data"`
	StorageKey   string         `bson:"storage" json:"-"`
	URL          string         `bson:"url" json:"url"`
	Privacy      Privacy        `bson:"privacy" json:"privacy"`
	Deleted      bool           `bson:"deleted" json:"-"`
	DeletedAt    *time.Time     `bson:"deletedAt" json:"-"`
	UnlinkedAt   *time.Time     `bson:"unlinkedAt" json:"-"`
	CreatedAt    time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt" json:"updatedAt"`

	// Owner is populated by the resolution middleware, never persisted.
	Owner *Profile `bson:"-" json:"-"`
}

// BlobKey is the full key of the stored bytes inside the blob store.
func (i *Image) BlobKey() string {
	return i.StorageKey + "/" + i.Name
}
