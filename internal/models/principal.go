package models

// Principal is the authenticated actor of a request: either a tenant
// (Profile == nil) or a profile acting under its owning tenant.
type Principal struct {
	API     *Api
	Profile *Profile
}

func (p Principal) IsAPI() bool {
	return p.Profile == nil
}

// CanActFor reports whether the principal may modify the given profile:
// the owning tenant always can, a profile only itself.
func (p Principal) CanActFor(target *Profile) bool {
	if target == nil {
		return false
	}
	if p.IsAPI() {
		return p.API != nil && p.API.ID == target.APIID
	}
	return p.Profile.ID == target.ID
}

// ViewModeFor selects the projection level a principal gets on a profile.
func (p Principal) ViewModeFor(target *Profile) Privacy {
	if p.CanActFor(target) {
		return PrivacyPrivate
	}
	return PrivacyPublic
}
