package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/ids"
	"profilehost/api/internal/media/sniffer"
	"profilehost/api/internal/models"
	"profilehost/api/internal/storage"
)

type ImageStore interface {
	Insert(ctx context.Context, image *models.Image) error
	FindActiveByOwnerAndName(ctx context.Context, ownerID bson.ObjectID, name string) (*models.Image, error)
	ListActiveByOwner(ctx context.Context, ownerID bson.ObjectID) ([]*models.Image, error)
	ApplyUpdate(ctx context.Context, id bson.ObjectID, fields map[string]any) (*models.Image, error)
	Unlink(ctx context.Context, id bson.ObjectID) error
}

type ProfileImageLinker interface {
	PushImage(ctx context.Context, profileID, imageID bson.ObjectID) error
	PullImage(ctx context.Context, profileID, imageID bson.ObjectID) error
}

// UploadInput is one multipart file plus its optional custom-data
// companion field.
type UploadInput struct {
	Field        string
	OriginalName string
	DeclaredType string
	Data         []byte
	CustomData   []byte
}

// ImageService is the image lifecycle manager: naming, storage-path
// derivation, persistence and unlinking.
type ImageService struct {
	images   ImageStore
	profiles ProfileImageLinker
	blobs    storage.BlobStore
	log      zerolog.Logger
}

func NewImageService(images ImageStore, profiles ProfileImageLinker, blobs storage.BlobStore, log zerolog.Logger) *ImageService {
	return &ImageService{
		images:   images,
		profiles: profiles,
		blobs:    blobs,
		log:      log,
	}
}

func (s *ImageService) sniff(in UploadInput) (sniffer.Result, error) {
	res, err := sniffer.DetectHead(in.Data)
	if err != nil {
		return sniffer.Result{}, ErrUnsupportedMime
	}
	if in.DeclaredType != "" && in.DeclaredType != res.MIME {
		return sniffer.Result{}, ErrUnsupportedMime
	}
	return res, nil
}

// Upload stores one image for a profile: unique generated name, lazily
// created <owner storage>/images directory, metadata record, and the
// back-reference on the owner. Unparseable custom data degrades to null
// here; only replace reports it as an error.
func (s *ImageService) Upload(ctx context.Context, api *models.Api, owner *models.Profile, in UploadInput) (*models.Image, error) {
	res, err := s.sniff(in)
	if err != nil {
		return nil, err
	}

	var custom any
	if len(in.CustomData) > 0 {
		if err := json.Unmarshal(in.CustomData, &custom); err != nil {
			custom = nil
		}
	}

	name := ids.NewImageName(res.Ext)
	dirKey := storage.ImagesKey(api.Token, owner.Token)

	if err := s.blobs.EnsureDir(ctx, dirKey); err != nil {
		return nil, fmt.Errorf("create image storage: %w", err)
	}
	if err := s.blobs.Write(ctx, dirKey+"/"+name, in.Data, res.MIME); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	ownerID := owner.ID
	image := &models.Image{
		APIID:        api.ID,
		OwnerID:      &ownerID,
		Name:         name,
		OriginalName: in.OriginalName,
		MimeType:     res.MIME,
		CustomData:   custom,
		StorageKey:   dirKey,
		URL:          imageURL(owner.Username, name),
		Privacy:      models.PrivacyPublic,
	}

	if err := s.images.Insert(ctx, image); err != nil {
		if rmErr := s.blobs.Remove(ctx, dirKey+"/"+name); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", dirKey+"/"+name).Msg("orphan blob left behind")
		}
		return nil, fmt.Errorf("save image: %w", err)
	}

	if err := s.profiles.PushImage(ctx, owner.ID, image.ID); err != nil {
		return nil, fmt.Errorf("link image: %w", err)
	}

	return image, nil
}

// Replace swaps an existing image's bytes: the name is regenerated (the
// old name stops resolving), mimetype and original name follow the new
// file, and the superseded blob is removed.
func (s *ImageService) Replace(ctx context.Context, api *models.Api, owner *models.Profile, image *models.Image, in UploadInput) (*models.Image, error) {
	res, err := s.sniff(in)
	if err != nil {
		return nil, err
	}

	newName := ids.NewImageName(res.Ext)
	dirKey := storage.ImagesKey(api.Token, owner.Token)

	if err := s.blobs.Write(ctx, dirKey+"/"+newName, in.Data, res.MIME); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	updated, err := s.images.ApplyUpdate(ctx, image.ID, map[string]any{
		"name":          newName,
		"original_name": in.OriginalName,
		"mimetype":      res.MIME,
		"storage":       dirKey,
		"url":           imageURL(owner.Username, newName),
	})
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Remove(ctx, image.BlobKey()); err != nil {
		s.log.Warn().Err(err).Str("key", image.BlobKey()).Msg("stale blob removal failed")
	}

	return updated, nil
}

// SetCustomData replaces an image's custom data with the parsed form of
// the raw JSON text.
func (s *ImageService) SetCustomData(ctx context.Context, image *models.Image, raw []byte) error {
	var custom any
	if err := json.Unmarshal(raw, &custom); err != nil {
		return ErrCustomData
	}
	_, err := s.images.ApplyUpdate(ctx, image.ID, map[string]any{"custom_data": custom})
	return err
}

// Unlink detaches an image from its owner without erasing the stored
// bytes. Unlinking an already-unlinked image is a no-op.
func (s *ImageService) Unlink(ctx context.Context, image *models.Image) error {
	if image.OwnerID != nil {
		if err := s.profiles.PullImage(ctx, *image.OwnerID, image.ID); err != nil {
			return fmt.Errorf("unlink from owner: %w", err)
		}
	}
	if err := s.images.Unlink(ctx, image.ID); err != nil {
		return fmt.Errorf("detach image: %w", err)
	}
	image.OwnerID = nil
	return nil
}

// FindForOwner resolves an owner-scoped image by name.
func (s *ImageService) FindForOwner(ctx context.Context, owner *models.Profile, name string) (*models.Image, error) {
	return s.images.FindActiveByOwnerAndName(ctx, owner.ID, name)
}

// FirstImage returns the oldest non-deleted image of a profile, or nil.
func (s *ImageService) FirstImage(ctx context.Context, owner *models.Profile) (*models.Image, error) {
	images, err := s.images.ListActiveByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}
	return images[0], nil
}

func imageURL(username, name string) string {
	return "/profiles/" + username + "/img/" + name
}
