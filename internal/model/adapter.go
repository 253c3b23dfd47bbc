package model

import "encoding/json"

// DiscoverySourcePivot marks adapter calls seeded by pivot extraction.
const DiscoverySourcePivot = "pivot"

// AdapterRequest is the body POSTed to every WAY adapter.
type AdapterRequest struct {
	SearchID             string           `json:"searchId"`
	Name                 string           `json:"name"`
	Email                string           `json:"email,omitempty"`
	Phone                string           `json:"phone,omitempty"`
	TruecallerEnrichment *PhoneEnrichment `json:"truecallerEnrichment,omitempty"`
	TargetUsername       string           `json:"targetUsername,omitempty"`
	TargetURL            string           `json:"targetUrl,omitempty"`
	DiscoverySource      string           `json:"discoverySource,omitempty"`
}

// AdapterResponse is the envelope every adapter answers with.
type AdapterResponse struct {
	Status          string          `json:"status"`
	Confidence      float64         `json:"confidence"`
	ExecutionTimeMs int64           `json:"executionTimeMs"`
	Data            json.RawMessage `json:"data"`
	Error           string          `json:"error,omitempty"`
}
