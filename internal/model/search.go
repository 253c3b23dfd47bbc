package model

// SessionStatus is the final state of a search session.
type SessionStatus string

const (
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusComplete   SessionStatus = "complete"
	SessionStatusPartial    SessionStatus = "partial"
	SessionStatusFailed     SessionStatus = "failed"
)

// PivotSeed is a user-confirmed identity used to anchor a pivot search.
type PivotSeed struct {
	Platform   string `json:"platform" yaml:"platform"`
	ProfileURL string `json:"profileUrl" yaml:"profileUrl"`
	Username   string `json:"username" yaml:"username"`
}

// SearchRequest is the inbound deep search request.
type SearchRequest struct {
	Name         string     `json:"name" yaml:"name"`
	Email        string     `json:"email,omitempty" yaml:"email,omitempty"`
	Phone        string     `json:"phone,omitempty" yaml:"phone,omitempty"`
	RunAllPhases bool       `json:"runAllPhases,omitempty" yaml:"runAllPhases,omitempty"`
	PivotProfile *PivotSeed `json:"pivotProfile,omitempty" yaml:"pivotProfile,omitempty"`
}

// SearchSession is the outcome of one search. It is finalized once before the
// response is written and never mutated afterwards.
type SearchSession struct {
	SearchID          string               `json:"searchId" yaml:"searchId"`
	Status            SessionStatus        `json:"status" yaml:"status"`
	CurrentPhase      int                  `json:"currentPhase" yaml:"currentPhase"`
	OverallConfidence int                  `json:"overallConfidence" yaml:"overallConfidence"`
	APIs              map[string]APIResult `json:"apis" yaml:"apis"`
	MergedProfile     *MergedProfile       `json:"mergedProfile" yaml:"mergedProfile"`
	PhasesCompleted   []int                `json:"phasesCompleted" yaml:"phasesCompleted"`
	ExecutionTimeMs   int64                `json:"executionTimeMs" yaml:"executionTimeMs"`
	Mode              string               `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// FailureResponse is the narrow body returned for validation errors and
// unexpected failures.
type FailureResponse struct {
	SearchID        string        `json:"searchId"`
	Status          SessionStatus `json:"status"`
	Error           string        `json:"error"`
	ExecutionTimeMs *int64        `json:"executionTimeMs,omitempty"`
}
