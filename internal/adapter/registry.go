// Package adapter describes the seven WAY data sources and calls them over
// HTTP.
package adapter

import (
	"slices"
	"strings"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/profile"
)

// Adapter names as they appear in the apis map.
const (
	PhoneIntel  = "phoneIntel"
	CodeGraph   = "codeGraph"
	WebCrawl    = "webCrawl"
	SocialMap   = "socialMap"
	CommitTrail = "commitTrail"
	ProConnect  = "proConnect"
	GovVerify   = "govVerify"
)

// PivotExtract is the apis key for the pivot extraction step.
const (
	PivotExtract        = "pivotExtract"
	PivotExtractBranded = "Hushh PivotExtract"
)

// Descriptor is the static definition of one adapter.
type Descriptor struct {
	Name     string
	Branded  string
	Endpoint string
	Phase    int
	Decode   profile.Decoder
}

// Registry is an immutable, ordered set of adapter descriptors. Order is the
// profile merge order.
type Registry struct {
	ordered []Descriptor
	byName  map[string]Descriptor
}

// NewRegistry builds a registry from descriptors in merge order.
func NewRegistry(ds ...Descriptor) *Registry {
	r := &Registry{byName: make(map[string]Descriptor, len(ds))}
	for _, d := range ds {
		if _, dup := r.byName[d.Name]; dup {
			continue
		}
		r.ordered = append(r.ordered, d)
		r.byName[d.Name] = d
	}
	return r
}

// DefaultRegistry returns the seven production adapters.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Descriptor{Name: PhoneIntel, Branded: "Hushh PhoneIntel", Endpoint: "deepsearch-phoneintel", Phase: 1, Decode: profile.DecodePhoneIntel},
		Descriptor{Name: CodeGraph, Branded: "Hushh CodeGraph", Endpoint: "deepsearch-codegraph", Phase: 1, Decode: profile.DecodeCodeGraph},
		Descriptor{Name: WebCrawl, Branded: "Hushh WebCrawl", Endpoint: "deepsearch-webcrawl", Phase: 2, Decode: profile.DecodeWebCrawl},
		Descriptor{Name: SocialMap, Branded: "Hushh SocialMap", Endpoint: "deepsearch-socialmap", Phase: 1, Decode: profile.DecodeSocialMap},
		Descriptor{Name: CommitTrail, Branded: "Hushh CommitTrail", Endpoint: "deepsearch-committrail", Phase: 2, Decode: profile.DecodeCommitTrail},
		Descriptor{Name: ProConnect, Branded: "Hushh ProConnect", Endpoint: "deepsearch-proconnect", Phase: 3, Decode: profile.DecodeProConnect},
		Descriptor{Name: GovVerify, Branded: "Hushh GovVerify", Endpoint: "deepsearch-govverify", Phase: 3, Decode: profile.DecodeGovVerify},
	)
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns every descriptor in merge order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Phase returns the names of the adapters in phase n, in registry order.
func (r *Registry) Phase(n int) []string {
	var names []string
	for _, d := range r.ordered {
		if d.Phase == n {
			names = append(names, d.Name)
		}
	}
	return names
}

// Phases returns the distinct phase numbers in ascending order.
func (r *Registry) Phases() []int {
	seen := make(map[int]bool)
	var out []int
	for _, d := range r.ordered {
		if !seen[d.Phase] {
			seen[d.Phase] = true
			out = append(out, d.Phase)
		}
	}
	slices.Sort(out)
	return out
}

// Branded returns the display name for an adapter, or name itself.
func (r *Registry) Branded(name string) string {
	if name == PivotExtract {
		return PivotExtractBranded
	}
	if d, ok := r.byName[name]; ok {
		return d.Branded
	}
	return name
}

// Sources pairs results with their decoders in merge order. Names missing
// from results are skipped.
func (r *Registry) Sources(results map[string]model.APIResult) []profile.Source {
	out := make([]profile.Source, 0, len(results))
	for _, d := range r.ordered {
		res, ok := results[d.Name]
		if !ok {
			continue
		}
		out = append(out, profile.Source{Result: res, Decode: d.Decode})
	}
	return out
}

var platformAdapters = map[string]string{
	"GitHub":       CodeGraph,
	"github":       CodeGraph,
	"LinkedIn":     ProConnect,
	"linkedin":     ProConnect,
	"Twitter":      SocialMap,
	"twitter":      SocialMap,
	"X":            SocialMap,
	"Website":      WebCrawl,
	"Blog":         WebCrawl,
	"PersonalSite": WebCrawl,
}

// ForPlatform maps a discovered profile's platform label to the adapter that
// can deepen it.
func ForPlatform(platform string) (string, bool) {
	name, ok := platformAdapters[strings.TrimSpace(platform)]
	return name, ok
}
