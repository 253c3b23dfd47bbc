package model

// Location is a coarse geographic location.
type Location struct {
	City    *string `json:"city" yaml:"city"`
	State   *string `json:"state" yaml:"state"`
	Country *string `json:"country" yaml:"country"`
}

// SocialProfile is one profile on an external platform.
type SocialProfile struct {
	Platform string `json:"platform" yaml:"platform"`
	URL      string `json:"url" yaml:"url"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Verified bool   `json:"verified" yaml:"verified"`
}

// MergedProfile is the canonical identity assembled from every source.
type MergedProfile struct {
	VerifiedName   *string         `json:"verifiedName" yaml:"verifiedName"`
	VerifiedEmails []string        `json:"verifiedEmails" yaml:"verifiedEmails"`
	VerifiedPhones []string        `json:"verifiedPhones" yaml:"verifiedPhones"`
	ProfilePhotos  []string        `json:"profilePhotos" yaml:"profilePhotos"`
	Location       Location        `json:"location" yaml:"location"`
	CurrentCompany *string         `json:"currentCompany" yaml:"currentCompany"`
	CurrentTitle   *string         `json:"currentTitle" yaml:"currentTitle"`
	SocialProfiles []SocialProfile `json:"socialProfiles" yaml:"socialProfiles"`
	Skills         []string        `json:"skills" yaml:"skills"`
	Bio            *string         `json:"bio" yaml:"bio"`
}

// NewMergedProfile returns an empty profile whose list fields encode as [].
func NewMergedProfile() *MergedProfile {
	return &MergedProfile{
		VerifiedEmails: []string{},
		VerifiedPhones: []string{},
		ProfilePhotos:  []string{},
		SocialProfiles: []SocialProfile{},
		Skills:         []string{},
	}
}
