package profile

import (
	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/model"
)

// Source pairs one adapter result with the decoder for its payload variant.
type Source struct {
	Result model.APIResult
	Decode Decoder
}

// ApplyEnrichment seeds the profile from a phone lookup. Lookups that found
// nothing contribute nothing.
func (b *Builder) ApplyEnrichment(e *model.PhoneEnrichment) {
	if e == nil || !e.Found {
		return
	}
	b.SetName(e.VerifiedName)
	b.AddEmails(e.AdditionalEmails...)
	b.SetCity(e.Location.City)
	b.SetState(e.Location.State)
	b.SetCountry(e.Location.Country)
	b.AddPhotos(e.PhotoURL)
}

// ApplySources merges adapter payloads in the given order. Failed results and
// results without data are skipped; undecodable payloads are logged and
// skipped.
func (b *Builder) ApplySources(sources []Source) {
	for _, src := range sources {
		r := src.Result
		if r.Status == model.APIStatusFailed || isNull(r.Data) || src.Decode == nil {
			continue
		}
		payload, err := src.Decode(r.Data)
		if err != nil {
			zap.L().Warn("profile: skipping undecodable payload",
				zap.String("adapter", r.APIName),
				zap.Error(err),
			)
			continue
		}
		payload.Contribute(b)
	}
}

// ApplyPivot merges data harvested from a user-confirmed seed profile. The
// seed is always recorded as verified; discovered profiles are verified only
// at 90+ confidence.
func (b *Builder) ApplyPivot(px *model.PivotExtraction) {
	if px == nil {
		return
	}
	ed := px.ExtractedData
	b.SetName(deref(ed.FullName))
	b.SetTitle(deref(ed.CurrentTitle))
	b.SetCompany(deref(ed.CurrentCompany))
	b.SetLocationText(deref(ed.Location))
	b.SetBio(deref(ed.Bio))
	b.AddSkills(ed.Skills...)

	b.addSeed(model.SocialProfile{
		Platform: px.Seed.Platform,
		URL:      px.Seed.ProfileURL,
		Username: px.Seed.Username,
		Verified: true,
	})
	for _, d := range px.DiscoveredProfiles {
		if d.URL == nil {
			continue
		}
		b.AddSocial(model.SocialProfile{
			Platform: d.Platform,
			URL:      *d.URL,
			Username: deref(d.Username),
			Verified: d.Confidence >= 90,
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}
