package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
	"profilehost/api/internal/response"
)

type ProfileResolver interface {
	FindActiveByUsername(ctx context.Context, apiID bson.ObjectID, username string) (*models.Profile, error)
}

type ImageResolver interface {
	FindActiveByName(ctx context.Context, apiID bson.ObjectID, name string) (*models.Image, error)
	FindOwner(ctx context.Context, image *models.Image) (*models.Profile, error)
}

// ResolveProfile turns the :username path segment into a live, non-deleted
// profile of the current tenant, or short-circuits with a not-found error.
// Must run after an auth gate.
func ResolveProfile(profiles ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			rejectUnauthorized(c)
			return
		}

		username := c.Param("username")
		if username == "" {
			response.Abort(c, response.CodeGeneral, "Expected parameter 'username'.")
			return
		}

		profile, err := profiles.FindActiveByUsername(c.Request.Context(), principal.API.ID, username)
		if err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				response.Abort(c, response.CodeGeneral, fmt.Sprintf("No user with username '%s'.", username))
				return
			}
			response.Abort(c, response.CodeGeneral, err.Error())
			return
		}

		SetTargetProfile(c, profile)
		c.Next()
	}
}

// ResolveImage turns the :image_name path segment into a live image of
// the current tenant with its owner eager-loaded.
func ResolveImage(images ImageResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			rejectUnauthorized(c)
			return
		}

		name := c.Param("image_name")
		if name == "" {
			response.Abort(c, response.CodeGeneral, "Expected parameter 'image_name'.")
			return
		}

		image, err := images.FindActiveByName(c.Request.Context(), principal.API.ID, name)
		if err != nil {
			if errors.Is(err, repository.ErrImageNotFound) {
				response.Abort(c, response.CodeGeneral, fmt.Sprintf("Image with name '%s' does not exists.", name))
				return
			}
			response.Abort(c, response.CodeGeneral, err.Error())
			return
		}

		if owner, err := images.FindOwner(c.Request.Context(), image); err == nil {
			image.Owner = owner
		}

		SetTargetImage(c, image)
		c.Next()
	}
}
