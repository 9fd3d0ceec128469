package middleware

import (
	"github.com/gin-gonic/gin"

	"profilehost/api/internal/models"
)

// Typed per-request state. Gates and resolvers attach entities here;
// handlers read them back through the accessors instead of poking at
// stringly-keyed context values.
const (
	principalKey     = "request.principal"
	targetProfileKey = "request.target_profile"
	targetImageKey   = "request.target_image"
)

func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
}

func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

func SetTargetProfile(c *gin.Context, profile *models.Profile) {
	c.Set(targetProfileKey, profile)
}

func TargetProfileFrom(c *gin.Context) (*models.Profile, bool) {
	v, ok := c.Get(targetProfileKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.Profile)
	return p, ok && p != nil
}

func SetTargetImage(c *gin.Context, image *models.Image) {
	c.Set(targetImageKey, image)
}

func TargetImageFrom(c *gin.Context) (*models.Image, bool) {
	v, ok := c.Get(targetImageKey)
	if !ok {
		return nil, false
	}
	img, ok := v.(*models.Image)
	return img, ok && img != nil
}
