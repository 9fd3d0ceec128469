package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"profilehost/api/internal/middleware"
	"profilehost/api/internal/models"
	"profilehost/api/internal/response"
	"profilehost/api/internal/service"
)

func (h HandlerSet) ListProfiles(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)

	profiles, err := h.profileService.List(c.Request.Context(), principal.API)
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}

	views := make([]service.ProfileView, 0, len(profiles))
	for _, profile := range profiles {
		view, err := h.profileService.Render(c.Request.Context(), profile, models.PrivacyPrivate)
		if err != nil {
			envelope.AddError(response.CodeGeneral, err.Error())
			envelope.Send(c)
			return
		}
		views = append(views, view)
	}

	envelope.SendData(c, views)
}

func (h HandlerSet) CreateProfile(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)

	var params service.ProfileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid request body.")
		envelope.Send(c)
		return
	}

	profile, err := h.profileService.Create(c.Request.Context(), principal.API, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			envelope.AddError(response.CodeGeneral, "Profilename or email not available.")
		case errors.Is(err, service.ErrValidation):
			envelope.AddError(response.CodeGeneral, err.Error())
		default:
			envelope.AddError(response.CodeGeneral, err.Error())
		}
		envelope.Send(c)
		return
	}

	view, err := h.profileService.Render(c.Request.Context(), profile, models.PrivacyPrivate)
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}
	envelope.SendData(c, view)
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)
	target, ok := middleware.TargetProfileFrom(c)
	if !ok {
		envelope.AddError(response.CodeGeneral, "Profile not found")
		envelope.Send(c)
		return
	}

	view, err := h.profileService.Render(c.Request.Context(), target, principal.ViewModeFor(target))
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}
	envelope.SendData(c, view)
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)

	var params service.ProfileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid request body.")
		envelope.Send(c)
		return
	}

	updated, err := h.profileService.Update(c.Request.Context(), principal, params)
	if err != nil {
		switch {
		case service.NotFound(err):
			envelope.AddError(response.CodeGeneral, "Profile not found")
		case errors.Is(err, service.ErrUnauthorized):
			envelope.AddError(response.CodeGeneral, "Unauthorized.")
		case errors.Is(err, service.ErrConflict):
			envelope.AddError(response.CodeGeneral, "Profilename or email not available.")
		default:
			envelope.AddError(response.CodeGeneral, err.Error())
		}
		envelope.Send(c)
		return
	}

	view, err := h.profileService.Render(c.Request.Context(), updated, models.PrivacyPrivate)
	if err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
		envelope.Send(c)
		return
	}
	envelope.SendData(c, view)
}

func (h HandlerSet) DeleteProfile(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)

	var params service.ProfileParams
	if err := c.ShouldBindJSON(&params); err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid request body.")
		envelope.Send(c)
		return
	}

	if err := h.profileService.Delete(c.Request.Context(), principal, params); err != nil {
		if service.NotFound(err) {
			envelope.AddError(response.CodeGeneral, "Profile not found")
		} else {
			envelope.AddError(response.CodeGeneral, err.Error())
		}
	}

	envelope.Send(c)
}
