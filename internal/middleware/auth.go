package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"profilehost/api/internal/models"
	"profilehost/api/internal/response"
)

const apiTokenHeader = "Api-Token"

// CredentialResolver maps credential material to a Principal. Implemented
// by service.CredentialService.
type CredentialResolver interface {
	ResolveAPIToken(ctx context.Context, token string) (models.Principal, error)
	ResolveBearer(ctx context.Context, authorization string) (models.Principal, error)
}

func rejectUnauthorized(c *gin.Context) {
	response.Abort(c, response.CodeGeneral, "Unauthorized.")
}

// RequireAPIAuth admits only tenant-secret credentials. Rejection writes
// the envelope and aborts the chain; the handler never runs.
func RequireAPIAuth(creds CredentialResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := creds.ResolveAPIToken(c.Request.Context(), c.GetHeader(apiTokenHeader))
		if err != nil {
			rejectUnauthorized(c)
			return
		}
		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireProfileAuth admits only profile bearer credentials.
func RequireProfileAuth(creds CredentialResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := creds.ResolveBearer(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			rejectUnauthorized(c)
			return
		}
		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireSomeAuth admits either credential type, trying the tenant
// secret first. A present-but-invalid Api-Token does not fall back to
// the bearer path.
func RequireSomeAuth(creds CredentialResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := c.GetHeader(apiTokenHeader); token != "" {
			principal, err := creds.ResolveAPIToken(c.Request.Context(), token)
			if err != nil {
				rejectUnauthorized(c)
				return
			}
			SetPrincipal(c, principal)
			c.Next()
			return
		}

		if authorization := c.GetHeader("Authorization"); authorization != "" {
			principal, err := creds.ResolveBearer(c.Request.Context(), authorization)
			if err != nil {
				rejectUnauthorized(c)
				return
			}
			SetPrincipal(c, principal)
			c.Next()
			return
		}

		rejectUnauthorized(c)
	}
}
