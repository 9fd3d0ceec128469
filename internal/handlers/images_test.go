package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/config"
	"profilehost/api/internal/middleware"
	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
	"profilehost/api/internal/response"
	"profilehost/api/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

var (
	jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pngBytes  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0x00}
)

// fakeProfiles backs the profile service with a map; only the paths the
// image handlers exercise are live.
type fakeProfiles struct {
	byID map[bson.ObjectID]*models.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byID: map[bson.ObjectID]*models.Profile{}}
}

func (f *fakeProfiles) Insert(_ context.Context, profile *models.Profile) error {
	profile.ID = bson.NewObjectID()
	f.byID[profile.ID] = profile
	return nil
}

func (f *fakeProfiles) FindByID(_ context.Context, id bson.ObjectID) (*models.Profile, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProfileNotFound
}

func (f *fakeProfiles) FindActiveByToken(context.Context, bson.ObjectID, string) (*models.Profile, error) {
	return nil, repository.ErrProfileNotFound
}

func (f *fakeProfiles) FindActiveByUsername(context.Context, bson.ObjectID, string) (*models.Profile, error) {
	return nil, repository.ErrProfileNotFound
}

func (f *fakeProfiles) FindActiveByEmail(context.Context, bson.ObjectID, string) (*models.Profile, error) {
	return nil, repository.ErrProfileNotFound
}

func (f *fakeProfiles) ListActiveByAPI(context.Context, bson.ObjectID) ([]*models.Profile, error) {
	return nil, nil
}

func (f *fakeProfiles) ExistsActive(context.Context, bson.ObjectID, string, string) (bool, error) {
	return false, nil
}

func (f *fakeProfiles) ApplyUpdate(context.Context, bson.ObjectID, map[string]any) (*models.Profile, error) {
	return nil, repository.ErrProfileNotFound
}

func (f *fakeProfiles) SoftDelete(context.Context, bson.ObjectID) error {
	return repository.ErrProfileNotFound
}

func (f *fakeProfiles) PushImage(_ context.Context, profileID, imageID bson.ObjectID) error {
	p, ok := f.byID[profileID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Images = append(p.Images, imageID)
	return nil
}

func (f *fakeProfiles) PullImage(_ context.Context, profileID, imageID bson.ObjectID) error {
	p, ok := f.byID[profileID]
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

type fakeImages struct {
	images []*models.Image
}

func (f *fakeImages) Insert(_ context.Context, image *models.Image) error {
	image.ID = bson.NewObjectID()
	image.CreatedAt = time.Now()
	f.images = append(f.images, image)
	return nil
}

func (f *fakeImages) FindActiveByOwnerAndName(_ context.Context, ownerID bson.ObjectID, name string) (*models.Image, error) {
	for _, img := range f.images {
		if img.OwnerID != nil && *img.OwnerID == ownerID && img.Name == name && !img.Deleted {
			return img, nil
		}
	}
	return nil, repository.ErrImageNotFound
}

func (f *fakeImages) ListActiveByOwner(_ context.Context, ownerID bson.ObjectID) ([]*models.Image, error) {
	var out []*models.Image
	for _, img := range f.images {
		if img.OwnerID != nil && *img.OwnerID == ownerID && !img.Deleted {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImages) ApplyUpdate(context.Context, bson.ObjectID, map[string]any) (*models.Image, error) {
	return nil, repository.ErrImageNotFound
}

func (f *fakeImages) Unlink(context.Context, bson.ObjectID) error {
	return repository.ErrImageNotFound
}

type fakeBlobs struct {
	blobs map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: map[string][]byte{}}
}

func (f *fakeBlobs) EnsureDir(context.Context, string) error { return nil }

func (f *fakeBlobs) Write(_ context.Context, key string, data []byte, _ string) error {
	f.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobs) Remove(_ context.Context, key string) error {
	delete(f.blobs, key)
	return nil
}

type uploadFixture struct {
	handlers HandlerSet
	images   *fakeImages
	blobs    *fakeBlobs
	api      *models.Api
	owner    *models.Profile
}

func newUploadFixture(t *testing.T) uploadFixture {
	t.Helper()

	profiles := newFakeProfiles()
	images := &fakeImages{}
	blobs := newFakeBlobs()

	api := &models.Api{ID: bson.NewObjectID(), Name: "acme", Token: "acme-token"}
	owner := &models.Profile{
		APIID:    api.ID,
		Username: "ada",
		Email:    "ada@example.com",
		Token:    "ada-token",
		Privacy:  models.DefaultProfilePrivacy(),
	}
	require.NoError(t, profiles.Insert(context.Background(), owner))

	return uploadFixture{
		handlers: HandlerSet{
			log:            zerolog.Nop(),
			cfg:            &config.AppConfig{},
			profileService: service.NewProfileService(profiles, images, blobs, zerolog.Nop()),
			imageService:   service.NewImageService(images, profiles, blobs, zerolog.Nop()),
		},
		images: images,
		blobs:  blobs,
		api:    api,
		owner:  owner,
	}
}

func (f uploadFixture) router() *gin.Engine {
	router := gin.New()
	router.Use(response.Middleware())
	router.POST("/profiles/:username/img",
		func(c *gin.Context) {
			middleware.SetPrincipal(c, models.Principal{API: f.api})
			middleware.SetTargetProfile(c, f.owner)
		},
		f.handlers.UploadImages,
	)
	return router
}

func filePart(t *testing.T, w *multipart.Writer, field, filename, contentType string, data []byte) {
	t.Helper()
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
}

func postUpload(t *testing.T, router *gin.Engine, body *bytes.Buffer, contentType string) response.Envelope {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/profiles/ada/img", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestUploadImagesRejectedFileDoesNotAbortSiblings(t *testing.T) {
	fixture := newUploadFixture(t)
	router := fixture.router()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	filePart(t, w, "avatar", "avatar.png", "image/png", pngBytes)
	filePart(t, w, "banner", "banner.gif", "image/gif", []byte("GIF89a..."))
	require.NoError(t, w.Close())

	envelope := postUpload(t, router, &body, w.FormDataContentType())

	// Exactly one error, naming the rejected field.
	require.Len(t, envelope.Errors, 1)
	assert.Equal(t, response.CodeGeneral, envelope.Errors[0].Code)
	assert.Equal(t, "File 'banner' has not an accepted MIME type.", envelope.Errors[0].Message)

	// The valid sibling went through.
	require.Len(t, fixture.images.images, 1)
	stored := fixture.images.images[0]
	assert.Equal(t, "image/png", stored.MimeType)
	assert.Equal(t, "avatar.png", stored.OriginalName)
	assert.Equal(t, pngBytes, fixture.blobs.blobs[stored.BlobKey()])

	var view service.ProfileView
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &view))
	require.Len(t, view.Images, 1)
	assert.Equal(t, stored.URL, view.Images[0].URL)
}

func TestUploadImagesAcceptsParameterizedContentType(t *testing.T) {
	fixture := newUploadFixture(t)
	router := fixture.router()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	filePart(t, w, "avatar", "avatar.jpg", "image/jpeg; charset=binary", jpegBytes)
	require.NoError(t, w.Close())

	envelope := postUpload(t, router, &body, w.FormDataContentType())

	assert.Empty(t, envelope.Errors)
	require.Len(t, fixture.images.images, 1)
	assert.Equal(t, "image/jpeg", fixture.images.images[0].MimeType)
}

func TestUploadImagesDeclaredTypeMismatchRejected(t *testing.T) {
	fixture := newUploadFixture(t)
	router := fixture.router()

	// PNG bytes declared as JPEG.
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	filePart(t, w, "avatar", "avatar.jpg", "image/jpeg", pngBytes)
	require.NoError(t, w.Close())

	envelope := postUpload(t, router, &body, w.FormDataContentType())

	require.Len(t, envelope.Errors, 1)
	assert.Equal(t, "File 'avatar' has not an accepted MIME type.", envelope.Errors[0].Message)
	assert.Empty(t, fixture.images.images)
	assert.Empty(t, fixture.blobs.blobs)
}

func TestUploadImagesCustomDataCompanionField(t *testing.T) {
	fixture := newUploadFixture(t)
	router := fixture.router()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	filePart(t, w, "avatar", "avatar.png", "image/png", pngBytes)
	require.NoError(t, w.WriteField("avatar_custom_data", `{"kind":"avatar"}`))
	require.NoError(t, w.Close())

	envelope := postUpload(t, router, &body, w.FormDataContentType())

	assert.Empty(t, envelope.Errors)
	require.Len(t, fixture.images.images, 1)
	assert.Equal(t, map[string]any{"kind": "avatar"}, fixture.images.images[0].CustomData)
}
