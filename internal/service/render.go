package service

import (
	"profilehost/api/internal/models"
)

// ImageView is the public shape of an image inside a profile projection:
// the serving URL and the opaque custom data, never the storage path.
type ImageView struct {
	URL        string `json:"url"`
	CustomData any    `json:"custom_data,omitempty"`
}

type NameView struct {
	First *string `json:"first,omitempty"`
	Last  *string `json:"last,omitempty"`
}

// ProfileView is the projection of a profile at a given privacy mode.
// Absent fields are omitted from the JSON form entirely.
type ProfileView struct {
	Username string      `json:"username"`
	Email    *string     `json:"email,omitempty"`
	Name     NameView    `json:"name"`
	Bio      *string     `json:"bio,omitempty"`
	Token    *string     `json:"token,omitempty"`
	Images   []ImageView `json:"images"`
}

// RenderProfile projects a profile for a viewer. A field is included when
// the mode is private or the field's own privacy flag is public; the
// secret token only ever appears in private mode. The image list must be
// the profile's current non-deleted images, freshly read from the store.
func RenderProfile(profile *models.Profile, images []*models.Image, mode models.Privacy) ProfileView {
	view := ProfileView{
		Username: profile.Username,
		Images:   []ImageView{},
	}

	private := mode == models.PrivacyPrivate

	if private || profile.Privacy.Email == models.PrivacyPublic {
		email := profile.Email
		view.Email = &email
	}
	if private || profile.Privacy.Name.First == models.PrivacyPublic {
		first := profile.Name.First
		view.Name.First = &first
	}
	if private || profile.Privacy.Name.Last == models.PrivacyPublic {
		last := profile.Name.Last
		view.Name.Last = &last
	}
	if private || profile.Privacy.Bio == models.PrivacyPublic {
		bio := profile.Bio
		view.Bio = &bio
	}
	if private {
		token := profile.Token
		view.Token = &token
	}

	for _, image := range images {
		if image.Deleted {
			continue
		}
		if !private && image.Privacy != models.PrivacyPublic {
			continue
		}
		view.Images = append(view.Images, ImageView{
			URL:        image.URL,
			CustomData: image.CustomData,
		})
	}

	return view
}
