package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"profilehost/api/internal/media/sniffer"
	"profilehost/api/internal/middleware"
	"profilehost/api/internal/models"
	"profilehost/api/internal/response"
	"profilehost/api/internal/service"
)

func (h HandlerSet) serveDefaultAsset(c *gin.Context) {
	c.File(h.cfg.ProfileImages.DefaultAsset)
}

func (h HandlerSet) GetFirstImage(c *gin.Context) {
	target, ok := middleware.TargetProfileFrom(c)
	if !ok {
		h.serveDefaultAsset(c)
		return
	}

	first, err := h.imageService.FirstImage(c.Request.Context(), target)
	if err != nil || first == nil {
		h.serveDefaultAsset(c)
		return
	}

	c.Redirect(http.StatusFound, first.URL)
}

func (h HandlerSet) GetImage(c *gin.Context) {
	target, ok := middleware.TargetProfileFrom(c)
	if !ok {
		h.serveDefaultAsset(c)
		return
	}

	image, err := h.imageService.FindForOwner(c.Request.Context(), target, c.Param("image_name"))
	if err != nil {
		h.serveDefaultAsset(c)
		return
	}

	blob, err := h.blobs.Open(c.Request.Context(), image.BlobKey())
	if err != nil {
		h.log.Warn().Err(err).Str("key", image.BlobKey()).Msg("image blob missing")
		h.serveDefaultAsset(c)
		return
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		h.serveDefaultAsset(c)
		return
	}

	c.Data(http.StatusOK, image.MimeType, data)
}

func readUpload(field string, header *multipart.FileHeader, customData string) (service.UploadInput, error) {
	file, err := header.Open()
	if err != nil {
		return service.UploadInput{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return service.UploadInput{}, err
	}

	in := service.UploadInput{
		Field:        field,
		OriginalName: header.Filename,
		DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
		Data:         data,
	}
	if customData != "" {
		in.CustomData = []byte(customData)
	}
	return in, nil
}

// sortedFileFields returns the file field names in a stable order so
// per-file errors line up deterministically.
func sortedFileFields(form *multipart.Form) []string {
	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func (h HandlerSet) UploadImages(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)
	target, ok := middleware.TargetProfileFrom(c)
	if !ok || !principal.CanActFor(target) {
		envelope.AddError(response.CodeGeneral, "Unauthorized.")
		envelope.Send(c)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid multipart form.")
		envelope.Send(c)
		return
	}

	for _, field := range sortedFileFields(form) {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}

		var customData string
		if values := form.Value[field+"_custom_data"]; len(values) > 0 {
			customData = values[0]
		}

		in, err := readUpload(field, headers[0], customData)
		if err != nil {
			envelope.AddError(response.CodeGeneral, fmt.Sprintf("File '%s' could not be read.", field))
			continue
		}

		if _, err := h.imageService.Upload(c.Request.Context(), principal.API, target, in); err != nil {
			if errors.Is(err, service.ErrUnsupportedMime) {
				envelope.AddError(response.CodeGeneral, fmt.Sprintf("File '%s' has not an accepted MIME type.", field))
			} else {
				envelope.AddError(response.CodeGeneral, err.Error())
			}
		}
	}

	h.sendProfileView(c, target.ID, envelope)
}

func (h HandlerSet) ReplaceImage(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)
	target, ok := middleware.TargetProfileFrom(c)
	image, imageOK := middleware.TargetImageFrom(c)
	if !ok || !imageOK || !principal.CanActFor(target) {
		envelope.AddError(response.CodeGeneral, "Unauthorized.")
		envelope.Send(c)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		envelope.AddError(response.CodeGeneral, "Invalid multipart form.")
		envelope.Send(c)
		return
	}

	for _, field := range sortedFileFields(form) {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}

		in, err := readUpload(field, headers[0], "")
		if err != nil {
			envelope.AddError(response.CodeGeneral, fmt.Sprintf("File '%s' could not be read.", field))
			continue
		}

		if _, err := h.imageService.Replace(c.Request.Context(), principal.API, target, image, in); err != nil {
			if errors.Is(err, service.ErrUnsupportedMime) {
				envelope.AddError(response.CodeGeneral, fmt.Sprintf("File '%s' has not an accepted MIME type.", field))
			} else {
				envelope.AddError(response.CodeGeneral, err.Error())
			}
		}
	}

	if values := form.Value["custom_data"]; len(values) > 0 {
		if err := h.imageService.SetCustomData(c.Request.Context(), image, []byte(values[0])); err != nil {
			if errors.Is(err, service.ErrCustomData) {
				envelope.AddError(response.CodeCustomData, "Custom data attached to image cannot be parsed as a JSON.")
			} else {
				envelope.AddError(response.CodeGeneral, err.Error())
			}
		}
	}

	h.sendProfileView(c, target.ID, envelope)
}

func (h HandlerSet) UnlinkImage(c *gin.Context) {
	envelope := response.For(c)
	principal, _ := middleware.PrincipalFrom(c)
	target, ok := middleware.TargetProfileFrom(c)
	image, imageOK := middleware.TargetImageFrom(c)
	if !ok || !imageOK || !principal.CanActFor(target) {
		envelope.AddError(response.CodeGeneral, "Unauthorized.")
		envelope.Send(c)
		return
	}

	if err := h.imageService.Unlink(c.Request.Context(), image); err != nil {
		envelope.AddError(response.CodeGeneral, err.Error())
	}

	h.sendProfileView(c, target.ID, envelope)
}

// sendProfileView re-reads the profile and responds with its private
// projection plus whatever errors accumulated along the way.
func (h HandlerSet) sendProfileView(c *gin.Context, profileID bson.ObjectID, envelope *response.Envelope) {
	profile, err := h.profileService.Get(c.Request.Context(), profileID)
	if err != nil {
		if !service.NotFound(err) {
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
