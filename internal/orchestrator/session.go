package orchestrator

import (
	"time"

	"github.com/hushh/deepsearch/internal/adapter"
	"github.com/hushh/deepsearch/internal/model"
)

// Modes reported on a finished session.
const (
	ModePhased = "phased"
	ModePivot  = "pivot"
)

// session accumulates one search. It is owned by the request goroutine;
// concurrent adapter calls hand their results back to it after they settle.
type session struct {
	id    string
	req   model.SearchRequest
	start time.Time

	apis       map[string]model.APIResult
	phases     []int
	current    int
	confidence int
	profile    *model.MergedProfile
	mode       string
}

func newSession(id string, req model.SearchRequest, reg *adapter.Registry, start time.Time) *session {
	s := &session{
		id:      id,
		req:     req,
		start:   start,
		apis:    make(map[string]model.APIResult),
		phases:  []int{},
		current: 1,
	}
	s.reset(reg)
	return s
}

// reset puts every registered adapter back to pending.
func (s *session) reset(reg *adapter.Registry) {
	clear(s.apis)
	for _, d := range reg.All() {
		s.apis[d.Name] = model.APIResult{
			APIName:     d.Name,
			BrandedName: d.Branded,
			Status:      model.APIStatusPending,
		}
	}
}

func (s *session) record(results ...model.APIResult) {
	for _, r := range results {
		s.apis[r.APIName] = r
	}
}

// skipPending marks adapters that never ran as skipped.
func (s *session) skipPending() {
	for name, r := range s.apis {
		if r.Status == model.APIStatusPending {
			r.Status = model.APIStatusSkipped
			s.apis[name] = r
		}
	}
}

func (s *session) finalize(now time.Time) *model.SearchSession {
	s.skipPending()
	p := s.profile
	if p == nil {
		p = model.NewMergedProfile()
	}
	return &model.SearchSession{
		SearchID:          s.id,
		Status:            FinalStatus(s.apis),
		CurrentPhase:      s.current,
		OverallConfidence: s.confidence,
		APIs:              s.apis,
		MergedProfile:     p,
		PhasesCompleted:   s.phases,
		ExecutionTimeMs:   now.Sub(s.start).Milliseconds(),
		Mode:              s.mode,
	}
}
