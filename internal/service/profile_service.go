package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/ids"
	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
	"profilehost/api/internal/storage"
)

type ProfileStore interface {
	Insert(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Profile, error)
	FindActiveByToken(ctx context.Context, apiID bson.ObjectID, token string) (*models.Profile, error)
	FindActiveByUsername(ctx context.Context, apiID bson.ObjectID, username string) (*models.Profile, error)
	FindActiveByEmail(ctx context.Context, apiID bson.ObjectID, email string) (*models.Profile, error)
	ListActiveByAPI(ctx context.Context, apiID bson.ObjectID) ([]*models.Profile, error)
	ExistsActive(ctx context.Context, apiID bson.ObjectID, email, username string) (bool, error)
	ApplyUpdate(ctx context.Context, id bson.ObjectID, fields map[string]any) (*models.Profile, error)
	SoftDelete(ctx context.Context, id bson.ObjectID) error
}

type ImageLister interface {
	ListActiveByOwner(ctx context.Context, ownerID bson.ObjectID) ([]*models.Image, error)
}

type NameParams struct {
	First *string `json:"first"`
	Last  *string `json:"last"`
}

type NamePrivacyParams struct {
	First *models.Privacy `json:"first"`
	Last  *models.Privacy `json:"last"`
}

type PrivacyParams struct {
	Email *models.Privacy    `json:"email"`
	Name  *NamePrivacyParams `json:"name"`
	Bio   *models.Privacy    `json:"bio"`
}

// ProfileParams is the body of profile create/update/delete requests.
// On update and delete, Token/Username/Email double as the target
// selector; whichever field selected the target is consumed and not
// written back.
type ProfileParams struct {
	Token     *string        `json:"token"`
	Username  *string        `json:"username"`
	Email     *string        `json:"email"`
	Name      *NameParams    `json:"name"`
	Bio       *string        `json:"bio"`
	URL       *string        `json:"url"`
	Twitter   *string        `json:"twitter"`
	Interests any            `json:"interests"`
	Privacy   *PrivacyParams `json:"privacy"`
}

type ProfileService struct {
	profiles ProfileStore
	images   ImageLister
	blobs    storage.BlobStore
	log      zerolog.Logger
}

func NewProfileService(profiles ProfileStore, images ImageLister, blobs storage.BlobStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		images:   images,
		blobs:    blobs,
		log:      log,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create registers a profile under the tenant, generating its secret
// token when absent and creating its storage directory synchronously.
func (s *ProfileService) Create(ctx context.Context, api *models.Api, params ProfileParams) (*models.Profile, error) {
	if params.Username == nil || params.Email == nil {
		return nil, fmt.Errorf("%w: username and email are required", ErrValidation)
	}

	username := normalize(*params.Username)
	email := normalize(*params.Email)
	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrValidation)
	}

	taken, err := s.profiles.ExistsActive(ctx, api.ID, email, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	profile := &models.Profile{
		APIID:    api.ID,
		Email:    email,
		Username: username,
		Token:    ids.NewSecret(),
		Privacy:  models.DefaultProfilePrivacy(),
		Images:   []bson.ObjectID{},
	}
	if params.Token != nil && *params.Token != "" {
		profile.Token = *params.Token
	}
	if params.Name != nil {
		if params.Name.First != nil {
			profile.Name.First = strings.TrimSpace(*params.Name.First)
		}
		if params.Name.Last != nil {
			profile.Name.Last = strings.TrimSpace(*params.Name.Last)
		}
	}
	if params.Bio != nil {
		profile.Bio = strings.TrimSpace(*params.Bio)
	}
	if params.URL != nil {
		profile.URL = *params.URL
	}
	if params.Twitter != nil {
		profile.Twitter = *params.Twitter
	}
	if params.Interests != nil {
		profile.Interests = params.Interests
	}
	applyPrivacy(&profile.Privacy, params.Privacy)

	if err := s.profiles.Insert(ctx, profile); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if err := s.blobs.EnsureDir(ctx, storage.ProfileKey(api.Token, profile.Token)); err != nil {
		return nil, fmt.Errorf("create profile storage: %w", err)
	}

	return profile, nil
}

// Get fetches a profile by id, deleted or not. Callers re-reading a
// profile they already hold should not lose it to a concurrent soft
// delete mid-request.
func (s *ProfileService) Get(ctx context.Context, id bson.ObjectID) (*models.Profile, error) {
	return s.profiles.FindByID(ctx, id)
}

func (s *ProfileService) List(ctx context.Context, api *models.Api) ([]*models.Profile, error) {
	return s.profiles.ListActiveByAPI(ctx, api.ID)
}

// ResolveTarget finds the profile a body refers to: by token, else
// username, else email, else (when allowed) the authenticated profile
// itself. The matched selector field is consumed so it never doubles as
// an updated value.
func (s *ProfileService) ResolveTarget(ctx context.Context, principal models.Principal, params *ProfileParams, allowSelf bool) (*models.Profile, error) {
	apiID := principal.API.ID

	switch {
	case params.Token != nil:
		token := *params.Token
		params.Token = nil
		return s.profiles.FindActiveByToken(ctx, apiID, token)
	case params.Username != nil:
		username := normalize(*params.Username)
		params.Username = nil
		return s.profiles.FindActiveByUsername(ctx, apiID, username)
	case params.Email != nil:
		email := normalize(*params.Email)
		params.Email = nil
		return s.profiles.FindActiveByEmail(ctx, apiID, email)
	case allowSelf && !principal.IsAPI():
		return principal.Profile, nil
	}

	return nil, repository.ErrProfileNotFound
}

// Update applies a partial update to the resolved target. Only the tenant
// or the profile itself may apply changes.
func (s *ProfileService) Update(ctx context.Context, principal models.Principal, params ProfileParams) (*models.Profile, error) {
	target, err := s.ResolveTarget(ctx, principal, &params, true)
	if err != nil {
		return nil, err
	}
	if !principal.CanActFor(target) {
		return nil, ErrUnauthorized
	}

	fields := updateFields(params)
	updated, err := s.profiles.ApplyUpdate(ctx, target.ID, fields)
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes the resolved target. The record is never removed;
// its storage tree is left untouched.
func (s *ProfileService) Delete(ctx context.Context, principal models.Principal, params ProfileParams) error {
	target, err := s.ResolveTarget(ctx, principal, &params, false)
	if err != nil {
		return err
	}
	return s.profiles.SoftDelete(ctx, target.ID)
}

// Render produces the projection of a profile at the given mode, with the
// image list recomputed from the store.
func (s *ProfileService) Render(ctx context.Context, profile *models.Profile, mode models.Privacy) (ProfileView, error) {
	images, err := s.images.ListActiveByOwner(ctx, profile.ID)
	if err != nil {
		return ProfileView{}, err
	}
	return RenderProfile(profile, images, mode), nil
}

func updateFields(params ProfileParams) map[string]any {
	fields := map[string]any{}

	if params.Username != nil {
		fields["username"] = normalize(*params.Username)
	}
	if params.Email != nil {
		fields["email"] = normalize(*params.Email)
	}
	if params.Name != nil {
		if params.Name.First != nil {
			fields["name.first"] = strings.TrimSpace(*params.Name.First)
		}
		if params.Name.Last != nil {
			fields["name.last"] = strings.TrimSpace(*params.Name.Last)
		}
	}
	if params.Bio != nil {
		fields["bio"] = strings.TrimSpace(*params.Bio)
	}
	if params.URL != nil {
		fields["url"] = *params.URL
	}
	if params.Twitter != nil {
		fields["twitter"] = *params.Twitter
	}
	if params.Interests != nil {
		fields["interests"] = params.Interests
	}
	if params.Privacy != nil {
		if params.Privacy.Email != nil && params.Privacy.Email.Valid() {
			fields["privacy.email"] = *params.Privacy.Email
		}
		if params.Privacy.Bio != nil && params.Privacy.Bio.Valid() {
			fields["privacy.bio"] = *params.Privacy.Bio
		}
		if params.Privacy.Name != nil {
			if params.Privacy.Name.First != nil && params.Privacy.Name.First.Valid() {
				fields["privacy.name.first"] = *params.Privacy.Name.First
			}
			if params.Privacy.Name.Last != nil && params.Privacy.Name.Last.Valid() {
				fields["privacy.name.last"] = *params.Privacy.Name.Last
			}
		}
	}

	return fields
}

func applyPrivacy(privacy *models.ProfilePrivacy, params *PrivacyParams) {
	if params == nil {
		return
	}
	if params.Email != nil && params.Email.Valid() {
		privacy.Email = *params.Email
	}
	if params.Bio != nil && params.Bio.Valid() {
		privacy.Bio = *params.Bio
	}
	if params.Name != nil {
		if params.Name.First != nil && params.Name.First.Valid() {
			privacy.Name.First = *params.Name.First
		}
		if params.Name.Last != nil && params.Name.Last.Valid() {
			privacy.Name.Last = *params.Name.Last
		}
	}
}

// NotFound reports whether an error is the store's profile-not-found
// sentinel, letting handlers map it onto the envelope.
func NotFound(err error) bool {
	return errors.Is(err, repository.ErrProfileNotFound)
}
