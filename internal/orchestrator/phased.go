package orchestrator

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/profile"
)

// phased runs the adapters phase by phase, continuing only while confidence
// stays under the next phase's threshold.
type phased struct {
	o *Orchestrator
}

func (p phased) Run(ctx context.Context, s *session) bool {
	o := p.o
	s.mode = ModePhased
	log := zap.L().With(zap.String("search_id", s.id))

	enrichment := p.enrich(ctx, s)
	base := model.AdapterRequest{
		SearchID:             s.id,
		Name:                 s.req.Name,
		Email:                s.req.Email,
		Phone:                s.req.Phone,
		TruecallerEnrichment: enrichment,
	}

	for i, phase := range o.reg.Phases() {
		names := o.reg.Phase(phase)
		if len(names) == 0 {
			continue
		}
		if i > 0 && !s.req.RunAllPhases && s.confidence >= o.cfg.threshold(phase) {
			log.Info("orchestrator: skipping phase",
				zap.Int("phase", phase),
				zap.Int("confidence", s.confidence),
			)
			continue
		}

		s.record(p.runPhase(ctx, names, base)...)
		s.phases = append(s.phases, phase)
		s.current = phase
		s.confidence = Aggregate(s.apis)
		log.Info("orchestrator: phase complete",
			zap.Int("phase", phase),
			zap.Int("confidence", s.confidence),
		)
	}

	b := profile.NewBuilder()
	b.ApplyEnrichment(enrichment)
	b.ApplySources(o.reg.Sources(s.apis))
	b.AddRequestPhone(s.req.Phone)
	s.profile = b.Profile()
	return true
}

func (p phased) enrich(ctx context.Context, s *session) *model.PhoneEnrichment {
	if s.req.Phone == "" || p.o.enricher == nil {
		return nil
	}
	e, err := p.o.enricher.Enrich(ctx, s.req.Phone, s.req.Name)
	if err != nil {
		zap.L().Warn("orchestrator: phone enrichment failed",
			zap.String("search_id", s.id),
			zap.Error(err),
		)
		return nil
	}
	return e
}

// runPhase calls every adapter in names concurrently and returns once all
// have settled. Results come back in names order.
func (p phased) runPhase(ctx context.Context, names []string, req model.AdapterRequest) []model.APIResult {
	results := make([]model.APIResult, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = p.o.caller.Call(ctx, name, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
