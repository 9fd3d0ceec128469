package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"profilehost/api/internal/config"
	"profilehost/api/internal/middleware"
	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
	"profilehost/api/internal/response"
	"profilehost/api/internal/service"
	"profilehost/api/internal/storage"
)

type HandlerSet struct {
	log   zerolog.Logger
	cfg   *config.AppConfig
	store *mongo.Client
	cache *redis.Client
	blobs storage.BlobStore

	apis     *repository.ApiRepository
	profiles *repository.ProfileRepository
	images   *repository.ImageRepository

	creds          *service.CredentialService
	profileService *service.ProfileService
	imageService   *service.ImageService
}

func NewHandlerSet(log zerolog.Logger, client *mongo.Client, db *mongo.Database, cache *redis.Client, blobs storage.BlobStore, cfg *config.AppConfig) HandlerSet {
	apiRepo := repository.NewApiRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	imageRepo := repository.NewImageRepository(db)

	creds := service.NewCredentialService(apiRepo, profileRepo, cache, cfg.Security.TokenCacheTTL, log)
	profileService := service.NewProfileService(profileRepo, imageRepo, blobs, log)
	imageService := service.NewImageService(imageRepo, profileRepo, blobs, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		store:          client,
		cache:          cache,
		blobs:          blobs,
		apis:           apiRepo,
		profiles:       profileRepo,
		images:         imageRepo,
		creds:          creds,
		profileService: profileService,
		imageService:   imageService,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	enveloped := router.Group("", response.Middleware())

	profiles := enveloped.Group("/profiles")
	profiles.GET("", middleware.RequireAPIAuth(h.creds), h.ListProfiles)
	profiles.POST("", middleware.RequireAPIAuth(h.creds), h.CreateProfile)
	profiles.PUT("", middleware.RequireSomeAuth(h.creds), h.UpdateProfile)
	profiles.DELETE("", middleware.RequireAPIAuth(h.creds), h.DeleteProfile)
	profiles.GET("/:username", middleware.RequireSomeAuth(h.creds), middleware.ResolveProfile(h.profiles), h.GetProfile)

	img := profiles.Group("/:username/img",
		middleware.RequireSomeAuth(h.creds),
		middleware.ResolveProfile(h.profiles),
	)
	img.GET("", h.GetFirstImage)
	img.GET("/:image_name", h.GetImage)
	img.POST("", h.UploadImages)
	img.PUT("/:image_name", middleware.ResolveImage(h.imageResolver()), h.ReplaceImage)
	img.DELETE("/:image_name", middleware.ResolveImage(h.imageResolver()), h.UnlinkImage)

	admin := enveloped.Group("/admin")
	admin.POST("/login", h.AdminLogin)

	guarded := admin.Group("", middleware.RequireAdmin(h.cfg.Security.AdminSecret))
	guarded.POST("/apis", h.AdminCreateAPI)
	guarded.GET("/apis", h.AdminListAPIs)
	guarded.GET("/images", h.AdminListImages)
}

// imageResolver bridges the image and profile repositories so the
// resolution middleware can eager-load an image's owner.
type imageResolver struct {
	images   *repository.ImageRepository
	profiles *repository.ProfileRepository
}

func (h HandlerSet) imageResolver() imageResolver {
	return imageResolver{images: h.images, profiles: h.profiles}
}

func (r imageResolver) FindActiveByName(ctx context.Context, apiID bson.ObjectID, name string) (*models.Image, error) {
	return r.images.FindActiveByName(ctx, apiID, name)
}

func (r imageResolver) FindOwner(ctx context.Context, image *models.Image) (*models.Profile, error) {
	if image.OwnerID == nil {
		return nil, repository.ErrProfileNotFound
	}
	return r.profiles.FindByID(ctx, *image.OwnerID)
}
