package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
)

// memBlobStore is an in-memory BlobStore that records every call so tests
// can assert on storage side effects.
type memBlobStore struct {
	dirs  map[string]bool
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{
		dirs:  map[string]bool{},
		blobs: map[string][]byte{},
	}
}

func (s *memBlobStore) EnsureDir(_ context.Context, key string) error {
	s.dirs[key] = true
	return nil
}

func (s *memBlobStore) Write(_ context.Context, key string, data []byte, _ string) error {
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *memBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Remove(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

type memProfileStore struct {
	profiles map[bson.ObjectID]*models.Profile
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: map[bson.ObjectID]*models.Profile{}}
}

func (s *memProfileStore) Insert(_ context.Context, profile *models.Profile) error {
	profile.ID = bson.NewObjectID()
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	s.profiles[profile.ID] = profile
	return nil
}

func (s *memProfileStore) FindByID(_ context.Context, id bson.ObjectID) (*models.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProfileNotFound
}

func (s *memProfileStore) findActive(apiID bson.ObjectID, match func(*models.Profile) bool) (*models.Profile, error) {
	for _, p := range s.profiles {
		if p.APIID == apiID && !p.Deleted && match(p) {
			return p, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

func (s *memProfileStore) FindActiveByToken(_ context.Context, apiID bson.ObjectID, token string) (*models.Profile, error) {
	return s.findActive(apiID, func(p *models.Profile) bool { return p.Token == token })
}

func (s *memProfileStore) FindActiveByUsername(_ context.Context, apiID bson.ObjectID, username string) (*models.Profile, error) {
	return s.findActive(apiID, func(p *models.Profile) bool { return p.Username == username })
}

func (s *memProfileStore) FindActiveByEmail(_ context.Context, apiID bson.ObjectID, email string) (*models.Profile, error) {
	return s.findActive(apiID, func(p *models.Profile) bool { return p.Email == email })
}

func (s *memProfileStore) ListActiveByAPI(_ context.Context, apiID bson.ObjectID) ([]*models.Profile, error) {
	var out []*models.Profile
	for _, p := range s.profiles {
		if p.APIID == apiID && !p.Deleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memProfileStore) ExistsActive(_ context.Context, apiID bson.ObjectID, email, username string) (bool, error) {
	_, err := s.findActive(apiID, func(p *models.Profile) bool {
		return p.Email == email || p.Username == username
	})
	return err == nil, nil
}

func (s *memProfileStore) ApplyUpdate(_ context.Context, id bson.ObjectID, fields map[string]any) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	for field, value := range fields {
		switch field {
		case "username":
			p.Username = value.(string)
		case "email":
			p.Email = value.(string)
		case "name.first":
			p.Name.First = value.(string)
		case "name.last":
			p.Name.Last = value.(string)
		case "bio":
			p.Bio = value.(string)
		case "url":
			p.URL = value.(string)
		case "twitter":
			p.Twitter = value.(string)
		case "interests":
			p.Interests = value
		case "privacy.email":
			p.Privacy.Email = value.(models.Privacy)
		case "privacy.bio":
			p.Privacy.Bio = value.(models.Privacy)
		case "privacy.name.first":
			p.Privacy.Name.First = value.(models.Privacy)
		case "privacy.name.last":
			p.Privacy.Name.Last = value.(models.Privacy)
		}
	}
	p.UpdatedAt = time.Now()
	return p, nil
}

func (s *memProfileStore) SoftDelete(_ context.Context, id bson.ObjectID) error {
	p, ok := s.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	now := time.Now()
	p.Deleted = true
	p.DeletedAt = &now
	return nil
}

func (s *memProfileStore) PushImage(_ context.Context, profileID, imageID bson.ObjectID) error {
	p, ok := s.profiles[profileID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Images = append(p.Images, imageID)
	return nil
}

func (s *memProfileStore) PullImage(_ context.Context, profileID, imageID bson.ObjectID) error {
	p, ok := s.profiles[profileID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	kept := p.Images[:0]
	for _, id := range p.Images {
		if id != imageID {
			kept = append(kept, id)
		}
	}
	p.Images = kept
	return nil
}

type memImageStore struct {
	images []*models.Image
}

func newMemImageStore() *memImageStore {
	return &memImageStore{}
}

func (s *memImageStore) Insert(_ context.Context, image *models.Image) error {
	image.ID = bson.NewObjectID()
	now := time.Now()
	image.CreatedAt = now
	image.UpdatedAt = now
	s.images = append(s.images, image)
	return nil
}

func (s *memImageStore) byID(id bson.ObjectID) (*models.Image, error) {
	for _, img := range s.images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, repository.ErrImageNotFound
}

func (s *memImageStore) FindActiveByOwnerAndName(_ context.Context, ownerID bson.ObjectID, name string) (*models.Image, error) {
	for _, img := range s.images {
		if img.OwnerID != nil && *img.OwnerID == ownerID && img.Name == name && !img.Deleted {
			return img, nil
		}
	}
	return nil, repository.ErrImageNotFound
}

func (s *memImageStore) ListActiveByOwner(_ context.Context, ownerID bson.ObjectID) ([]*models.Image, error) {
	var out []*models.Image
	for _, img := range s.images {
		if img.OwnerID != nil && *img.OwnerID == ownerID && !img.Deleted {
			out = append(out, img)
		}
	}
	return out, nil
}

func (s *memImageStore) ApplyUpdate(_ context.Context, id bson.ObjectID, fields map[string]any) (*models.Image, error) {
	img, err := s.byID(id)
	if err != nil {
		return nil, err
	}
	for field, value := range fields {
		switch field {
		case "name":
			img.Name = value.(string)
		case "original_name":
			img.OriginalName = value.(string)
		case "mimetype":
			img.MimeType = value.(string)
		case "storage":
			img.StorageKey = value.(string)
		case "url":
			img.URL = value.(string)
		case "custom_data":
			img.CustomData = value
		}
	}
	img.UpdatedAt = time.Now()
	return img, nil
}

func (s *memImageStore) Unlink(_ context.Context, id bson.ObjectID) error {
	img, err := s.byID(id)
	if err != nil {
		return err
	}
	now := time.Now()
	img.OwnerID = nil
	img.UnlinkedAt = &now
	return nil
}
