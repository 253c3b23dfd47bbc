package pivot

import (
	"fmt"
	"strings"

	"github.com/hushh/deepsearch/internal/model"
)

const systemPrompt = "You are an OSINT analyst. Answer with a single valid JSON object and nothing else. " +
	"Only report what can reasonably be inferred from the profile; use null when unsure."

var platformHints = map[string]string{
	"LinkedIn": `LinkedIn profiles usually show a headline and current role, dated work history,
education, skills, certifications, a location, and an About section that often links to
GitHub, Twitter, or a personal site.`,
	"GitHub": `GitHub profiles usually show a display name, bio, company, location, sometimes a
public email, a website or blog link, a linked Twitter handle, organizations, and pinned
repositories that indicate expertise.`,
	"Twitter": `Twitter/X profiles usually show a display name, bio (often with links to other
profiles), location, a website, and tweets whose themes hint at a profession.`,
}

const defaultHint = `Look for name, username, bio, professional details, location, contact
information, and links to other platforms.`

const responseShape = `{
  "extractedData": {
    "fullName": string|null, "headline": string|null, "currentTitle": string|null,
    "currentCompany": string|null, "location": "City, Country"|null, "bio": string|null,
    "workHistory": [{"title": "", "company": "", "duration": "2020-Present", "isCurrent": true}],
    "education": [{"institution": "", "degree": "", "field": "", "year": ""}],
    "skills": [], "languages": [], "certifications": []
  },
  "discoveredProfiles": [
    {"platform": "GitHub|LinkedIn|Twitter|PersonalSite|Blog|...", "username": string|null,
     "url": string|null, "confidence": 0-100,
     "discoveryMethod": "bio_link|username_match|email_match|company_match|ai_inference"}
  ],
  "searchQueries": {"github": string|null, "twitter": string|null, "google": string|null, "linkedin": string|null}
}`

// buildPrompt renders the extraction instructions for one confirmed profile.
func buildPrompt(req model.PivotRequest) string {
	hint, ok := platformHints[req.Platform]
	if !ok {
		hint = defaultHint
	}

	var sb strings.Builder
	sb.WriteString("The user confirmed they own this profile. Extract everything you can from it and ")
	sb.WriteString("list profiles on other platforms that belong to the same person.\n\n")
	fmt.Fprintf(&sb, "Platform: %s\nURL: %s\nUsername: %s\n", req.Platform, req.ProfileURL, req.Username)
	if req.Name != "" {
		fmt.Fprintf(&sb, "Name searched for: %s\n", req.Name)
	}
	if req.Email != "" {
		fmt.Fprintf(&sb, "Email searched for: %s\n", req.Email)
	}
	if req.Phone != "" {
		fmt.Fprintf(&sb, "Phone searched for: %s\n", req.Phone)
	}
	sb.WriteString("\n")
	sb.WriteString(hint)
	sb.WriteString("\n\nRespond with JSON of exactly this shape:\n")
	sb.WriteString(responseShape)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Only include discovered profiles you are confident belong to the same person.\n")
	sb.WriteString("- Confidence: 90+ for links in the bio, 70-89 for username matches, 50-69 for inference.\n")
	fmt.Fprintf(&sb, "- Make extractedData as complete as %s allows.\n", req.Platform)
	return sb.String()
}

// stripFences removes markdown code fences around a JSON answer.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
