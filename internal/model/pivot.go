package model

// PivotStatus is the outcome of a pivot extraction.
type PivotStatus string

const (
	PivotStatusSuccess PivotStatus = "success"
	PivotStatusPartial PivotStatus = "partial"
	PivotStatusFailed  PivotStatus = "failed"
)

// PivotRequest asks the extractor to analyse a confirmed profile.
type PivotRequest struct {
	Platform   string `json:"platform"`
	ProfileURL string `json:"profileUrl"`
	Username   string `json:"username"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// WorkEntry is one position in a work history.
type WorkEntry struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Duration  string `json:"duration"`
	IsCurrent bool   `json:"isCurrent"`
}

// EducationEntry is one education record.
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Year        string `json:"year"`
}

// ExtractedData holds profile fields harvested from the confirmed seed.
type ExtractedData struct {
	FullName       *string          `json:"fullName"`
	Headline       *string          `json:"headline"`
	CurrentTitle   *string          `json:"currentTitle"`
	CurrentCompany *string          `json:"currentCompany"`
	Location       *string          `json:"location"`
	Bio            *string          `json:"bio"`
	WorkHistory    []WorkEntry      `json:"workHistory"`
	Education      []EducationEntry `json:"education"`
	Skills         []string         `json:"skills"`
	Languages      []string         `json:"languages"`
	Certifications []string         `json:"certifications"`
}

// DiscoveredProfile is a candidate profile on another platform.
type DiscoveredProfile struct {
	Platform        string  `json:"platform"`
	Username        *string `json:"username"`
	URL             *string `json:"url"`
	Confidence      float64 `json:"confidence"`
	DiscoveryMethod string  `json:"discoveryMethod"`
}

// SearchQueries are follow-up queries suggested by the extractor.
type SearchQueries struct {
	GitHub   *string `json:"github"`
	Twitter  *string `json:"twitter"`
	Google   *string `json:"google"`
	LinkedIn *string `json:"linkedin"`
}

// PivotExtraction is the extractor's answer.
type PivotExtraction struct {
	Status             PivotStatus         `json:"status"`
	Confidence         float64             `json:"confidence"`
	Seed               PivotSeed           `json:"seed"`
	ExtractedData      ExtractedData       `json:"extractedData"`
	DiscoveredProfiles []DiscoveredProfile `json:"discoveredProfiles"`
	SearchQueries      SearchQueries       `json:"searchQueries"`
	Error              string              `json:"error,omitempty"`
}
