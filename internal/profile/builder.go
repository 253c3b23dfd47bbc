// Package profile merges adapter payloads into one canonical identity profile.
//
// Scalar fields are first-non-empty-wins: once set, a later source never
// overwrites them. List fields are unioned with de-duplication by value, and
// social profiles by URL. Nothing is ever cleared.
package profile

import (
	"strings"
	"unicode"

	"github.com/hushh/deepsearch/internal/model"
)

// Builder accumulates a MergedProfile.
type Builder struct {
	p      *model.MergedProfile
	emails map[string]struct{}
	phones map[string]struct{}
	photos map[string]struct{}
	skills map[string]struct{}
	urls   map[string]struct{}
}

// NewBuilder returns a builder over an empty profile.
func NewBuilder() *Builder {
	return &Builder{
		p:      model.NewMergedProfile(),
		emails: make(map[string]struct{}),
		phones: make(map[string]struct{}),
		photos: make(map[string]struct{}),
		skills: make(map[string]struct{}),
		urls:   make(map[string]struct{}),
	}
}

// Profile returns the merged profile. The builder must not be used after.
func (b *Builder) Profile() *model.MergedProfile {
	return b.p
}

func setFirst(dst **string, v string) {
	v = strings.TrimSpace(v)
	if v == "" || *dst != nil {
		return
	}
	*dst = &v
}

func addUnique(list *[]string, seen map[string]struct{}, vals ...string) {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		*list = append(*list, v)
	}
}

// SetName sets verifiedName unless already set.
func (b *Builder) SetName(v string) { setFirst(&b.p.VerifiedName, v) }

// SetCompany sets currentCompany unless already set.
func (b *Builder) SetCompany(v string) { setFirst(&b.p.CurrentCompany, v) }

// SetTitle sets currentTitle unless already set.
func (b *Builder) SetTitle(v string) { setFirst(&b.p.CurrentTitle, v) }

// SetBio sets bio unless already set.
func (b *Builder) SetBio(v string) { setFirst(&b.p.Bio, v) }

// SetCity sets location.city unless already set.
func (b *Builder) SetCity(v string) { setFirst(&b.p.Location.City, v) }

// SetState sets location.state unless already set.
func (b *Builder) SetState(v string) { setFirst(&b.p.Location.State, v) }

// SetCountry sets location.country unless already set.
func (b *Builder) SetCountry(v string) { setFirst(&b.p.Location.Country, v) }

// SetLocationText parses a free-form "City, ..., Country" string. It only
// applies when no city has been set yet.
func (b *Builder) SetLocationText(loc string) {
	loc = strings.TrimSpace(loc)
	if loc == "" || b.p.Location.City != nil {
		return
	}
	parts := strings.Split(loc, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 2 {
		b.SetCity(parts[0])
		b.SetCountry(parts[len(parts)-1])
		return
	}
	b.SetCity(loc)
}

// AddEmails unions emails into verifiedEmails.
func (b *Builder) AddEmails(v ...string) { addUnique(&b.p.VerifiedEmails, b.emails, v...) }

// AddPhones unions already-normalized phones into verifiedPhones.
func (b *Builder) AddPhones(v ...string) { addUnique(&b.p.VerifiedPhones, b.phones, v...) }

// AddPhotos unions photo URLs into profilePhotos.
func (b *Builder) AddPhotos(v ...string) { addUnique(&b.p.ProfilePhotos, b.photos, v...) }

// AddSkills unions skills.
func (b *Builder) AddSkills(v ...string) { addUnique(&b.p.Skills, b.skills, v...) }

// AddSocial appends sp unless a profile with the same URL is present.
// Profiles without a URL are dropped.
func (b *Builder) AddSocial(sp model.SocialProfile) {
	sp.URL = strings.TrimSpace(sp.URL)
	if sp.URL == "" {
		return
	}
	if _, ok := b.urls[sp.URL]; ok {
		return
	}
	b.urls[sp.URL] = struct{}{}
	b.p.SocialProfiles = append(b.p.SocialProfiles, sp)
}

// addSeed records the confirmed seed profile even when it carries no URL.
func (b *Builder) addSeed(sp model.SocialProfile) {
	sp.URL = strings.TrimSpace(sp.URL)
	if sp.URL != "" {
		if _, ok := b.urls[sp.URL]; ok {
			return
		}
		b.urls[sp.URL] = struct{}{}
	}
	b.p.SocialProfiles = append(b.p.SocialProfiles, sp)
}

// AddRequestPhone normalizes phone and appends it to verifiedPhones.
func (b *Builder) AddRequestPhone(phone string) {
	if n := NormalizePhone(phone); n != "" {
		b.AddPhones(n)
	}
}

// NormalizePhone strips spaces, dashes, parentheses and dots.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-', '(', ')', '.':
			return -1
		}
		return r
	}, phone)
}
