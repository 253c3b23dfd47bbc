package store

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/hushh/deepsearch/internal/db"
	"github.com/hushh/deepsearch/internal/model"
)

var searchUpsert = db.UpsertConfig{
	Table: "osint_searches",
	Columns: []string{
		"id", "input_name", "input_email", "input_phone", "status", "current_phase",
		"overall_confidence", "phases_completed", "execution_time_ms", "mode", "created_at",
	},
	ConflictKeys: []string{"id"},
	UpdateCols: []string{
		"status", "current_phase", "overall_confidence", "phases_completed", "execution_time_ms", "mode",
	},
}

var profileUpsert = db.UpsertConfig{
	Table: "osint_profiles",
	Columns: []string{
		"search_id", "verified_name", "verified_emails", "verified_phones", "profile_photos",
		"location_city", "location_state", "location_country", "current_company", "current_title",
		"social_profiles", "skills", "bio", "overall_confidence", "updated_at",
	},
	ConflictKeys: []string{"search_id"},
}

var apiCallUpsert = db.UpsertConfig{
	Table: "osint_api_calls",
	Columns: []string{
		"id", "search_id", "api_name", "branded_name", "status", "confidence",
		"execution_time_ms", "response_data", "error_message", "created_at",
	},
	ConflictKeys: []string{"search_id", "api_name"},
	UpdateCols: []string{
		"branded_name", "status", "confidence", "execution_time_ms", "response_data", "error_message",
	},
}

// sessionRows holds the upsert statements for one session, in write order.
type sessionRows struct {
	search   [][]any
	profile  [][]any
	apiCalls [][]any
}

func buildRows(req model.SearchRequest, sess *model.SearchSession, now time.Time) (*sessionRows, error) {
	if sess == nil || sess.SearchID == "" {
		return nil, eris.New("store: session has no search id")
	}

	phases, err := jsonText(nonNilInts(sess.PhasesCompleted))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal phases")
	}

	rows := &sessionRows{
		search: [][]any{{
			sess.SearchID, req.Name, nullString(req.Email), nullString(req.Phone),
			string(sess.Status), sess.CurrentPhase, sess.OverallConfidence, phases,
			sess.ExecutionTimeMs, sess.Mode, now,
		}},
	}

	p := sess.MergedProfile
	if p == nil {
		p = model.NewMergedProfile()
	}
	emails, err := jsonText(nonNilStrings(p.VerifiedEmails))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal emails")
	}
	phones, err := jsonText(nonNilStrings(p.VerifiedPhones))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal phones")
	}
	photos, err := jsonText(nonNilStrings(p.ProfilePhotos))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal photos")
	}
	social := p.SocialProfiles
	if social == nil {
		social = []model.SocialProfile{}
	}
	socialJSON, err := jsonText(social)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal social profiles")
	}
	skills, err := jsonText(nonNilStrings(p.Skills))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal skills")
	}
	rows.profile = [][]any{{
		sess.SearchID, p.VerifiedName, emails, phones, photos,
		p.Location.City, p.Location.State, p.Location.Country, p.CurrentCompany, p.CurrentTitle,
		socialJSON, skills, p.Bio, sess.OverallConfidence, now,
	}}

	names := make([]string, 0, len(sess.APIs))
	for name := range sess.APIs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		r := sess.APIs[name]
		var data any
		if len(r.Data) > 0 && string(r.Data) != "null" {
			data = string(r.Data)
		}
		rows.apiCalls = append(rows.apiCalls, []any{
			uuid.NewString(), sess.SearchID, name, r.BrandedName, string(r.Status), r.Confidence,
			r.ExecutionTimeMs, data, nullString(r.Error), now,
		})
	}
	return rows, nil
}

// statements renders every upsert for the session with the given placeholder
// style. Sessions without adapter entries produce no api_calls statement.
func (r *sessionRows) statements(ph db.Placeholder) ([]statement, error) {
	type part struct {
		cfg  db.UpsertConfig
		rows [][]any
	}
	parts := []part{{searchUpsert, r.search}, {profileUpsert, r.profile}}
	if len(r.apiCalls) > 0 {
		parts = append(parts, part{apiCallUpsert, r.apiCalls})
	}

	out := make([]statement, 0, len(parts))
	for _, p := range parts {
		cfg := p.cfg
		cfg.Placeholder = ph
		sql, args, err := db.UpsertSQL(cfg, p.rows)
		if err != nil {
			return nil, eris.Wrapf(err, "store: build %s upsert", cfg.Table)
		}
		out = append(out, statement{sql: sql, args: args})
	}
	return out, nil
}

type statement struct {
	sql  string
	args []any
}

// profileColumns is scanned by both stores in this order.
type profileColumns struct {
	name, city, state, country, company, title, bio *string
	emails, phones, photos, social, skills          []byte
}

func (c *profileColumns) dest() []any {
	return []any{
		&c.name, &c.emails, &c.phones, &c.photos, &c.city, &c.state, &c.country,
		&c.company, &c.title, &c.social, &c.skills, &c.bio,
	}
}

func (c *profileColumns) profile() (*model.MergedProfile, error) {
	p := model.NewMergedProfile()
	p.VerifiedName = c.name
	p.Location = model.Location{City: c.city, State: c.state, Country: c.country}
	p.CurrentCompany = c.company
	p.CurrentTitle = c.title
	p.Bio = c.bio
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{c.emails, &p.VerifiedEmails},
		{c.phones, &p.VerifiedPhones},
		{c.photos, &p.ProfilePhotos},
		{c.social, &p.SocialProfiles},
		{c.skills, &p.Skills},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal profile")
		}
	}
	return p, nil
}

// apiCallColumns is one scanned osint_api_calls row.
type apiCallColumns struct {
	name, branded, status string
	confidence            float64
	execMs                int64
	data                  []byte
	errMsg                *string
}

func (c *apiCallColumns) dest() []any {
	return []any{&c.name, &c.branded, &c.status, &c.confidence, &c.execMs, &c.data, &c.errMsg}
}

func (c *apiCallColumns) result() model.APIResult {
	r := model.APIResult{
		APIName:         c.name,
		BrandedName:     c.branded,
		Status:          model.APIStatus(c.status),
		Confidence:      c.confidence,
		ExecutionTimeMs: c.execMs,
	}
	if len(c.data) > 0 {
		r.Data = json.RawMessage(slices.Clone(c.data))
	}
	if c.errMsg != nil {
		r.Error = *c.errMsg
	}
	return r
}

func unmarshalPhases(raw []byte) ([]int, error) {
	phases := []int{}
	if len(raw) == 0 {
		return phases, nil
	}
	if err := json.Unmarshal(raw, &phases); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal phases")
	}
	return phases, nil
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
