package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"profilehost/api/internal/ids"
	"profilehost/api/internal/models"
	"profilehost/api/internal/repository"
	"profilehost/api/internal/response"
	"profilehost/api/internal/security"
	"profilehost/api/internal/storage"
)

type adminLoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h HandlerSet) AdminLogin(c *gin.Context) {
	envelope := response.For(c)

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid request body.")
		envelope.Send(c)
		return
	}

	ok, err := security.VerifyPassword(req.Password, h.cfg.Security.AdminPasswordHash)
	if err != nil || !ok || req.Name != h.cfg.Security.AdminName {
		envelope.AddError(response.CodeGeneral, "Unauthorized.")
		envelope.Send(c)
		return
	}

	token, err := security.GenerateAdminToken(h.cfg.Security.AdminSecret, req.Name, h.cfg.Security.AdminTokenTTL)
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}

	envelope.SendData(c, gin.H{"token": token})
}

type createAPIRequest struct {
	Name string `json:"name"`
}

// AdminCreateAPI provisions a tenant: unique lowercase name, generated
// secret, storage directory created up front. The token is only ever
// returned here.
func (h HandlerSet) AdminCreateAPI(c *gin.Context) {
	envelope := response.For(c)

	var req createAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid request body.")
		envelope.Send(c)
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		envelope.AddError(response.CodeGeneral, "Api name is required.")
		envelope.Send(c)
		return
	}

	api := &models.Api{Name: name, Token: ids.NewSecret()}
	if err := h.apis.Insert(c.Request.Context(), api); err != nil {
		if repository.IsDuplicate(err) {
			envelope.AddError(response.CodeGeneral, "Api name not available.")
		} else {
			envelope.AddError(response.CodeGeneral, err.Error())
		}
		envelope.Send(c)
		return
	}

	if err := h.blobs.EnsureDir(c.Request.Context(), storage.APIKey(api.Token)); err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}

	envelope.SendData(c, gin.H{
		"name":  api.Name,
		"token": api.Token,
	})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}

func (h HandlerSet) AdminListAPIs(c *gin.Context) {
	envelope := response.For(c)
	limit, offset := pagination(c)

	apis, err := h.apis.List(c.Request.Context(), limit, offset)
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}

	items := make([]gin.H, 0, len(apis))
	for _, api := range apis {
		items = append(items, gin.H{
			"id":        api.ID,
			"name":      api.Name,
			"createdAt": api.CreatedAt,
		})
	}

	envelope.SendData(c, items)
}

func (h HandlerSet) AdminListImages(c *gin.Context) {
	envelope := response.For(c)
	limit, offset := pagination(c)

	images, err := h.images.List(c.Request.Context(), limit, offset)
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}

	items := make([]gin.H, 0, len(images))
	for _, img := range images {
		items = append(items, gin.H{
			"id":        img.ID,
			"name":      img.Name,
			"url":       img.URL,
			"mimetype":  img.MimeType,
			"privacy":   img.Privacy,
			"deleted":   img.Deleted,
			"orphaned":  img.OwnerID == nil,
			"createdAt": img.CreatedAt,
		})
	}

	envelope.SendData(c, items)
}
