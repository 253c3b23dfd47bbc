package model

// PhoneEnrichment is the caller-ID lookup performed once before phase 1.
type PhoneEnrichment struct {
	Found            bool          `json:"truecallerFound"`
	VerifiedName     string        `json:"verifiedName,omitempty"`
	AdditionalEmails []string      `json:"additionalEmails"`
	Location         PhoneLocation `json:"location"`
	PhotoURL         string        `json:"photoUrl,omitempty"`
	Carrier          string        `json:"carrier,omitempty"`
	SpamScore        float64       `json:"spamScore,omitempty"`
}

// PhoneLocation is the location reported by the phone lookup.
type PhoneLocation struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}
