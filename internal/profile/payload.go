package profile

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hushh/deepsearch/internal/model"
)

// Payload is one adapter's decoded data. Every registered adapter has exactly
// one Payload variant, and each variant merges itself.
type Payload interface {
	Contribute(b *Builder)
}

// Decoder turns an adapter's raw data object into its Payload variant.
type Decoder func(raw json.RawMessage) (Payload, error)

func decode[T Payload](raw json.RawMessage) (Payload, error) {
	var p T
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, eris.Wrap(err, "profile: decode payload")
	}
	return p, nil
}

// Decoders for each adapter variant.
var (
	DecodePhoneIntel  Decoder = decode[PhoneIntel]
	DecodeCodeGraph   Decoder = decode[CodeGraph]
	DecodeWebCrawl    Decoder = decode[WebCrawl]
	DecodeSocialMap   Decoder = decode[SocialMap]
	DecodeCommitTrail Decoder = decode[CommitTrail]
	DecodeProConnect  Decoder = decode[ProConnect]
	DecodeGovVerify   Decoder = decode[GovVerify]
)

// PhoneIntel is the caller-ID adapter payload.
type PhoneIntel struct {
	VerifiedName     string   `json:"verifiedName"`
	AdditionalEmails []string `json:"additionalEmails"`
	PhotoURL         string   `json:"photoUrl"`
}

// Contribute adds the carrier-verified name, extra emails and photo.
func (p PhoneIntel) Contribute(b *Builder) {
	b.SetName(p.VerifiedName)
	b.AddEmails(p.AdditionalEmails...)
	b.AddPhotos(p.PhotoURL)
}

// CodeGraph is the code-hosting adapter payload.
type CodeGraph struct {
	VerifiedName  string   `json:"verifiedName"`
	VerifiedEmail string   `json:"verifiedEmail"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	Bio           string   `json:"bio"`
	ProfileURLs   []string `json:"profileUrls"`
	TopLanguages  []string `json:"topLanguages"`
}

// Contribute adds identity fields and languages. Profile URLs become verified
// github profiles.
func (p CodeGraph) Contribute(b *Builder) {
	b.SetName(p.VerifiedName)
	b.AddEmails(p.VerifiedEmail)
	b.SetCompany(p.Company)
	b.SetCity(p.Location)
	b.SetBio(p.Bio)
	for _, u := range p.ProfileURLs {
		b.AddSocial(model.SocialProfile{
			Platform: "github",
			URL:      u,
			Username: lastPathSegment(u),
			Verified: true,
		})
	}
	b.AddSkills(p.TopLanguages...)
}

// WebCrawl is the search-engine crawl adapter payload.
type WebCrawl struct {
	ExtractedProfiles []model.SocialProfile `json:"extractedProfiles"`
	RelatedCompanies  []string              `json:"relatedCompanies"`
	RelatedLocations  []string              `json:"relatedLocations"`
}

// Contribute adds crawled profiles; only the first related company and
// location are used, the location as a city.
func (p WebCrawl) Contribute(b *Builder) {
	for _, sp := range p.ExtractedProfiles {
		b.AddSocial(sp)
	}
	if len(p.RelatedCompanies) > 0 {
		b.SetCompany(p.RelatedCompanies[0])
	}
	if len(p.RelatedLocations) > 0 {
		b.SetCity(p.RelatedLocations[0])
	}
}

// SocialMap is the social-network adapter payload.
type SocialMap struct {
	Profiles  []model.SocialProfile `json:"profiles"`
	Bio       string                `json:"bio"`
	AvatarURL string                `json:"avatarUrl"`
	Location  string                `json:"location"`
}

// Contribute adds the mapped profiles, bio, avatar and location.
func (p SocialMap) Contribute(b *Builder) {
	for _, sp := range p.Profiles {
		b.AddSocial(sp)
	}
	b.SetBio(p.Bio)
	b.AddPhotos(p.AvatarURL)
	b.SetLocationText(p.Location)
}

// CommitTrail is the commit-history adapter payload.
type CommitTrail struct {
	AuthorName   string   `json:"authorName"`
	CommitEmails []string `json:"commitEmails"`
	Languages    []string `json:"languages"`
}

// Contribute adds the author name, commit emails and languages.
func (p CommitTrail) Contribute(b *Builder) {
	b.SetName(p.AuthorName)
	b.AddEmails(p.CommitEmails...)
	b.AddSkills(p.Languages...)
}

// ProConnect is the professional-network adapter payload.
type ProConnect struct {
	FullName       string   `json:"fullName"`
	CurrentTitle   string   `json:"currentTitle"`
	CurrentCompany string   `json:"currentCompany"`
	Location       string   `json:"location"`
	Summary        string   `json:"summary"`
	Skills         []string `json:"skills"`
	ProfileURL     string   `json:"profileUrl"`
	PhotoURL       string   `json:"photoUrl"`
}

// Contribute adds the professional profile and records its URL as a verified
// linkedin profile.
func (p ProConnect) Contribute(b *Builder) {
	b.SetName(p.FullName)
	b.SetTitle(p.CurrentTitle)
	b.SetCompany(p.CurrentCompany)
	b.SetLocationText(p.Location)
	b.SetBio(p.Summary)
	b.AddSkills(p.Skills...)
	b.AddPhotos(p.PhotoURL)
	if p.ProfileURL != "" {
		b.AddSocial(model.SocialProfile{
			Platform: "linkedin",
			URL:      p.ProfileURL,
			Username: lastPathSegment(p.ProfileURL),
			Verified: true,
		})
	}
}

// GovVerify is the public-records adapter payload.
type GovVerify struct {
	VerifiedName string `json:"verifiedName"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

// Contribute adds the public-record name and address parts.
func (p GovVerify) Contribute(b *Builder) {
	b.SetName(p.VerifiedName)
	b.SetCity(p.City)
	b.SetState(p.State)
	b.SetCountry(p.Country)
}

func lastPathSegment(u string) string {
	return path.Base(strings.TrimRight(u, "/"))
}
