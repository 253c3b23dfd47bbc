package store

import (
	"encoding/json"

	"github.com/hushh/deepsearch/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleSession() (model.SearchRequest, *model.SearchSession) {
	req := model.SearchRequest{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+1 (555) 123-4567"}

	profile := model.NewMergedProfile()
	profile.VerifiedName = strPtr("Ada Lovelace")
	profile.VerifiedEmails = []string{"ada@example.com"}
	profile.VerifiedPhones = []string{"+15551234567"}
	profile.CurrentCompany = strPtr("Analytical Engines")
	profile.Location.City = strPtr("London")
	profile.SocialProfiles = []model.SocialProfile{
		{Platform: "github", URL: "https://github.com/ada", Username: "ada", Verified: true},
	}
	profile.Skills = []string{"Go", "Mathematics"}

	return req, &model.SearchSession{
		SearchID:          "ds_lz1abc_x1y2z3",
		Status:            model.SessionStatusPartial,
		CurrentPhase:      2,
		OverallConfidence: 64,
		PhasesCompleted:   []int{1, 2},
		ExecutionTimeMs:   1840,
		Mode:              "phased",
		MergedProfile:     profile,
		APIs: map[string]model.APIResult{
			"codeGraph": {
				APIName: "codeGraph", BrandedName: "Hushh CodeGraph", Status: model.APIStatusSuccess,
				Confidence: 82, ExecutionTimeMs: 410, Data: json.RawMessage(`{"company":"Analytical Engines"}`),
			},
			"webCrawl": {
				APIName: "webCrawl", BrandedName: "Hushh WebCrawl", Status: model.APIStatusFailed,
				ExecutionTimeMs: 20000, Error: "context deadline exceeded",
			},
			"proConnect": {
				APIName: "proConnect", BrandedName: "Hushh ProConnect", Status: model.APIStatusSkipped,
			},
		},
	}
}
