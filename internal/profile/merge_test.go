package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh/deepsearch/internal/model"
)

func src(name string, status model.APIStatus, data string, dec Decoder) Source {
	r := model.APIResult{APIName: name, Status: status}
	if data != "" {
		r.Data = json.RawMessage(data)
	}
	return Source{Result: r, Decode: dec}
}

func strp(s string) *string { return &s }

func TestApplySources_FirstWinsAcrossAdapters(t *testing.T) {
	b := NewBuilder()
	b.ApplySources([]Source{
		src("codeGraph", model.APIStatusSuccess, `{"company":"Acme","verifiedName":"Jane"}`, DecodeCodeGraph),
		src("webCrawl", model.APIStatusSuccess, `{"relatedCompanies":["Other"]}`, DecodeWebCrawl),
	})

	p := b.Profile()
	require.NotNil(t, p.CurrentCompany)
	assert.Equal(t, "Acme", *p.CurrentCompany)
	assert.Equal(t, "Jane", *p.VerifiedName)
}

func TestApplySources_SkipsFailedAndNull(t *testing.T) {
	b := NewBuilder()
	b.ApplySources([]Source{
		src("codeGraph", model.APIStatusFailed, `{"company":"Ghost"}`, DecodeCodeGraph),
		src("phoneIntel", model.APIStatusSuccess, `null`, DecodePhoneIntel),
		src("govVerify", model.APIStatusPartial, "", DecodeGovVerify),
		src("socialMap", model.APIStatusPartial, `{"bio":"hello"}`, DecodeSocialMap),
	})

	p := b.Profile()
	assert.Nil(t, p.CurrentCompany)
	assert.Nil(t, p.VerifiedName)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "hello", *p.Bio)
}

func TestApplySources_UndecodableSkipped(t *testing.T) {
	b := NewBuilder()
	b.ApplySources([]Source{
		src("codeGraph", model.APIStatusSuccess, `{"company": 42}`, DecodeCodeGraph),
		src("govVerify", model.APIStatusSuccess, `{"verifiedName":"Jane","country":"IN"}`, DecodeGovVerify),
	})

	p := b.Profile()
	assert.Nil(t, p.CurrentCompany)
	assert.Equal(t, "Jane", *p.VerifiedName)
	assert.Equal(t, "IN", *p.Location.Country)
}

func TestApplySources_ListUnionIsOrderIndependent(t *testing.T) {
	a := src("codeGraph", model.APIStatusSuccess,
		`{"verifiedEmail":"a@x.com","topLanguages":["Go","Rust"],"profileUrls":["https://github.com/jd"]}`,
		DecodeCodeGraph)
	c := src("commitTrail", model.APIStatusSuccess,
		`{"commitEmails":["b@x.com","a@x.com"],"languages":["Rust","Python"]}`,
		DecodeCommitTrail)

	fwd := NewBuilder()
	fwd.ApplySources([]Source{a, c})
	rev := NewBuilder()
	rev.ApplySources([]Source{c, a})

	assert.ElementsMatch(t, fwd.Profile().VerifiedEmails, rev.Profile().VerifiedEmails)
	assert.ElementsMatch(t, fwd.Profile().Skills, rev.Profile().Skills)
	assert.ElementsMatch(t, []string{"Go", "Rust", "Python"}, fwd.Profile().Skills)
}

func TestCodeGraph_SocialFromProfileURLs(t *testing.T) {
	b := NewBuilder()
	CodeGraph{ProfileURLs: []string{"https://github.com/janedoe/"}}.Contribute(b)

	p := b.Profile()
	require.Len(t, p.SocialProfiles, 1)
	assert.Equal(t, model.SocialProfile{
		Platform: "github",
		URL:      "https://github.com/janedoe/",
		Username: "janedoe",
		Verified: true,
	}, p.SocialProfiles[0])
}

func TestWebCrawl_LocationSetsCityOnly(t *testing.T) {
	b := NewBuilder()
	WebCrawl{RelatedLocations: []string{"Bengaluru", "Delhi"}}.Contribute(b)

	p := b.Profile()
	assert.Equal(t, "Bengaluru", *p.Location.City)
	assert.Nil(t, p.Location.Country)
}

func TestApplyEnrichment(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		b := NewBuilder()
		b.ApplyEnrichment(&model.PhoneEnrichment{
			Found:            true,
			VerifiedName:     "Jane",
			AdditionalEmails: []string{"j@x.com"},
			Location:         model.PhoneLocation{City: "Pune", Country: "India"},
			PhotoURL:         "https://img/1",
		})
		p := b.Profile()
		assert.Equal(t, "Jane", *p.VerifiedName)
		assert.Equal(t, []string{"j@x.com"}, p.VerifiedEmails)
		assert.Equal(t, "Pune", *p.Location.City)
		assert.Nil(t, p.Location.State)
		assert.Equal(t, []string{"https://img/1"}, p.ProfilePhotos)
	})

	t.Run("not found", func(t *testing.T) {
		b := NewBuilder()
		b.ApplyEnrichment(&model.PhoneEnrichment{Found: false, VerifiedName: "Nope"})
		b.ApplyEnrichment(nil)
		assert.Nil(t, b.Profile().VerifiedName)
	})
}

func TestApplyPivot(t *testing.T) {
	b := NewBuilder()
	b.ApplyPivot(&model.PivotExtraction{
		Seed: model.PivotSeed{Platform: "linkedin", ProfileURL: "https://linkedin.com/in/jd", Username: "jd"},
		ExtractedData: model.ExtractedData{
			FullName:       strp("Jane Doe"),
			CurrentCompany: strp("Acme"),
			Location:       strp("Pune, Maharashtra, India"),
			Skills:         []string{"Go"},
		},
		DiscoveredProfiles: []model.DiscoveredProfile{
			{Platform: "GitHub", URL: strp("https://github.com/jd"), Username: strp("jd"), Confidence: 95},
			{Platform: "Twitter", URL: strp("https://x.com/jd"), Confidence: 60},
			{Platform: "Blog", URL: nil, Confidence: 99},
		},
	})

	p := b.Profile()
	assert.Equal(t, "Jane Doe", *p.VerifiedName)
	assert.Equal(t, "Acme", *p.CurrentCompany)
	assert.Equal(t, "Pune", *p.Location.City)
	assert.Equal(t, "India", *p.Location.Country)
	assert.Equal(t, []string{"Go"}, p.Skills)

	require.Len(t, p.SocialProfiles, 3)
	assert.True(t, p.SocialProfiles[0].Verified)
	assert.Equal(t, "https://linkedin.com/in/jd", p.SocialProfiles[0].URL)
	assert.True(t, p.SocialProfiles[1].Verified)
	assert.Equal(t, "jd", p.SocialProfiles[1].Username)
	assert.False(t, p.SocialProfiles[2].Verified)
}

func TestApplyPivot_SeedWithoutURL(t *testing.T) {
	b := NewBuilder()
	b.ApplyPivot(&model.PivotExtraction{
		Seed: model.PivotSeed{Platform: "GitHub", Username: "a"},
		DiscoveredProfiles: []model.DiscoveredProfile{
			{Platform: "Twitter", URL: strp("https://x.com/a"), Confidence: 70},
		},
	})

	p := b.Profile()
	require.Len(t, p.SocialProfiles, 2)
	assert.Equal(t, model.SocialProfile{Platform: "GitHub", Username: "a", Verified: true}, p.SocialProfiles[0])
	assert.Equal(t, "https://x.com/a", p.SocialProfiles[1].URL)
}

func TestApplyPivot_ThenAdaptersDoNotOverwrite(t *testing.T) {
	b := NewBuilder()
	b.ApplyPivot(&model.PivotExtraction{
		Seed:          model.PivotSeed{Platform: "github", ProfileURL: "https://github.com/jd", Username: "jd"},
		ExtractedData: model.ExtractedData{CurrentCompany: strp("Acme")},
	})
	b.ApplySources([]Source{
		src("proConnect", model.APIStatusSuccess, `{"currentCompany":"Other","currentTitle":"CTO"}`, DecodeProConnect),
	})

	p := b.Profile()
	assert.Equal(t, "Acme", *p.CurrentCompany)
	assert.Equal(t, "CTO", *p.CurrentTitle)
}
