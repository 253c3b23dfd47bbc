package model

import "encoding/json"

// APIStatus is the lifecycle state of a single adapter call.
type APIStatus string

const (
	APIStatusPending APIStatus = "pending"
	APIStatusRunning APIStatus = "running"
	APIStatusSuccess APIStatus = "success"
	APIStatusFailed  APIStatus = "failed"
	APIStatusPartial APIStatus = "partial"
	APIStatusSkipped APIStatus = "skipped"
)

// ParseAPIStatus maps an adapter-reported status string onto APIStatus. An
// empty status means the adapter answered without one and counts as success;
// anything unrecognized counts as partial.
func ParseAPIStatus(s string) APIStatus {
	switch APIStatus(s) {
	case "":
		return APIStatusSuccess
	case APIStatusPending, APIStatusRunning, APIStatusSuccess, APIStatusFailed, APIStatusPartial, APIStatusSkipped:
		return APIStatus(s)
	default:
		return APIStatusPartial
	}
}

// Settled reports whether the status counts toward aggregate confidence.
func (s APIStatus) Settled() bool {
	return s != APIStatusPending && s != APIStatusSkipped
}

// APIResult records one adapter's outcome for a search.
type APIResult struct {
	APIName         string          `json:"apiName" yaml:"apiName"`
	BrandedName     string          `json:"brandedName" yaml:"brandedName"`
	Status          APIStatus       `json:"status" yaml:"status"`
	Confidence      float64         `json:"confidence" yaml:"confidence"`
	ExecutionTimeMs int64           `json:"executionTimeMs" yaml:"executionTimeMs"`
	Data            json.RawMessage `json:"data" yaml:"-"`
	Error           string          `json:"error,omitempty" yaml:"error,omitempty"`

	// Answered is true when the adapter returned a decodable 2xx envelope,
	// whatever status it reported.
	Answered bool `json:"-" yaml:"-"`
}

// ClampConfidence bounds a source-reported confidence to [0, 100].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
