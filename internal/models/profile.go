package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Privacy string

const (
	PrivacyPrivate Privacy = "private"
	PrivacyPublic  Privacy = "public"
)

func (p Privacy) Valid() bool {
	return p == PrivacyPrivate || p == PrivacyPublic
}

type PersonName struct {
	First string `bson:"first" json:"first"`
	Last  string `bson:"last" json:"last"`
}

type NamePrivacy struct {
	First Privacy `bson:"first" json:"first"`
	Last  Privacy `bson:"last" json:"last"`
}

type ProfilePrivacy struct {
	Email Privacy     `bson:"email" json:"email"`
	Name  NamePrivacy `bson:"name" json:"name"`
	Bio   Privacy     `bson:"bio" json:"bio"`
}

// DefaultProfilePrivacy mirrors the historical defaults: first name is the
// only field visible to strangers out of the box.
func DefaultProfilePrivacy() ProfilePrivacy {
	return ProfilePrivacy{
		Email: PrivacyPrivate,
		Name: NamePrivacy{
			First: PrivacyPublic,
			Last:  PrivacyPrivate,
		},
		Bio: PrivacyPrivate,
	}
}

// Profile is a tenant-owned user. Profiles are soft-deleted only; email,
// username and token are globally unique (enforced by collection indexes).
type Profile struct {
	ID           bson.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	APIID        bson.ObjectID   `bson:"api" json:"-"`
	Email        string          `bson:"email" json:"email"`
	Username     string          `bson:"username" json:"username"`
	Name         PersonName      `bson:"name" json:"name"`
	Token        string          `bson:"token" json:"-"`
	Bio          string          `bson:"bio" json:"bio"`
	Images       []bson.ObjectID `bson:"images" json:"-"`
	URL          string          `bson:"url" json:"url,omitempty"`
	Twitter      string          `bson:"twitter" json:"twitter,omitempty"`
	Interests    any             `bson:"interests" json:"interests,omitempty"`
	Privacy      ProfilePrivacy  `bson:"privacy" json:"privacy"`
	RecoveryCode string          `bson:"recoveryCode" json:"-"`
	Deleted      bool            `bson:"deleted" json:"-"`
	DeletedAt    *time.Time      `bson:"deletedAt" json:"-"`
	CreatedAt    time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updatedAt" json:"updatedAt"`
}
