package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh/deepsearch/internal/model"
)

func TestBuilder_ScalarFirstWins(t *testing.T) {
	b := NewBuilder()
	b.SetCompany("Acme")
	b.SetCompany("Other")
	b.SetName("   ")
	b.SetName("Jane Doe")

	p := b.Profile()
	require.NotNil(t, p.CurrentCompany)
	assert.Equal(t, "Acme", *p.CurrentCompany)
	require.NotNil(t, p.VerifiedName)
	assert.Equal(t, "Jane Doe", *p.VerifiedName)
	assert.Nil(t, p.Bio)
}

func TestBuilder_ListsDeduplicate(t *testing.T) {
	b := NewBuilder()
	b.AddEmails("a@x.com", "b@x.com", "a@x.com", "")
	b.AddSkills("Go", "Go", " Rust ")
	b.AddPhotos("p1", "p1")

	p := b.Profile()
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, p.VerifiedEmails)
	assert.Equal(t, []string{"Go", "Rust"}, p.Skills)
	assert.Equal(t, []string{"p1"}, p.ProfilePhotos)
}

func TestBuilder_SocialDedupByURL(t *testing.T) {
	b := NewBuilder()
	b.AddSocial(model.SocialProfile{Platform: "github", URL: "https://github.com/jd", Verified: true})
	b.AddSocial(model.SocialProfile{Platform: "GitHub", URL: " https://github.com/jd ", Verified: false})
	b.AddSocial(model.SocialProfile{Platform: "twitter", URL: ""})

	p := b.Profile()
	require.Len(t, p.SocialProfiles, 1)
	assert.Equal(t, "github", p.SocialProfiles[0].Platform)
	assert.True(t, p.SocialProfiles[0].Verified)
}

func TestBuilder_SetLocationText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantCity    string
		wantCountry string
	}{
		{"city and country", "Pune, Maharashtra, India", "Pune", "India"},
		{"city only", "Berlin", "Berlin", ""},
		{"two parts", "Austin, USA", "Austin", "USA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			b.SetLocationText(tt.text)
			p := b.Profile()
			require.NotNil(t, p.Location.City)
			assert.Equal(t, tt.wantCity, *p.Location.City)
			if tt.wantCountry == "" {
				assert.Nil(t, p.Location.Country)
			} else {
				require.NotNil(t, p.Location.Country)
				assert.Equal(t, tt.wantCountry, *p.Location.Country)
			}
		})
	}
}

func TestBuilder_SetLocationText_CityAlreadySet(t *testing.T) {
	b := NewBuilder()
	b.SetCity("Mumbai")
	b.SetLocationText("Pune, India")

	p := b.Profile()
	assert.Equal(t, "Mumbai", *p.Location.City)
	assert.Nil(t, p.Location.Country)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("+1 (555) 123-4567"))
	assert.Equal(t, "9876543210", NormalizePhone("98765.43210"))
	assert.Equal(t, "", NormalizePhone(" \t"))
}

func TestBuilder_AddRequestPhone(t *testing.T) {
	b := NewBuilder()
	b.AddPhones("+15551234567")
	b.AddRequestPhone("+1 (555) 123-4567")
	b.AddRequestPhone("")

	assert.Equal(t, []string{"+15551234567"}, b.Profile().VerifiedPhones)
}
