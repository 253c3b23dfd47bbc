package orchestrator

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hushh/deepsearch/internal/adapter"
	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/profile"
)

const (
	minChainConfidence = 50
	chainBoost         = 10
	pivotBonus         = 20
)

// pivot seeds the search from a profile the user already confirmed, then
// calls only the adapters that can deepen what the extraction discovered.
type pivot struct {
	o    *Orchestrator
	seed model.PivotSeed
}

type pivotPayload struct {
	ExtractedData      model.ExtractedData       `json:"extractedData"`
	DiscoveredProfiles []model.DiscoveredProfile `json:"discoveredProfiles"`
	SearchQueries      model.SearchQueries       `json:"searchQueries"`
}

func (p pivot) Run(ctx context.Context, s *session) bool {
	o := p.o
	if o.extractor == nil {
		return false
	}
	log := zap.L().With(zap.String("search_id", s.id), zap.String("platform", p.seed.Platform))

	px, elapsed := p.extract(ctx, s)
	if px == nil {
		return false
	}
	s.mode = ModePivot

	status := model.APIStatusPartial
	if px.Status == model.PivotStatusSuccess {
		status = model.APIStatusSuccess
	}
	data, err := json.Marshal(pivotPayload{
		ExtractedData:      px.ExtractedData,
		DiscoveredProfiles: px.DiscoveredProfiles,
		SearchQueries:      px.SearchQueries,
	})
	if err != nil {
		log.Warn("orchestrator: encode pivot payload", zap.Error(err))
		data = nil
	}
	s.record(model.APIResult{
		APIName:         adapter.PivotExtract,
		BrandedName:     adapter.PivotExtractBranded,
		Status:          status,
		Confidence:      model.ClampConfidence(px.Confidence),
		ExecutionTimeMs: elapsed.Milliseconds(),
		Data:            data,
	})

	chained := p.chain(ctx, s, px)
	for _, r := range chained {
		s.record(r)
	}

	b := profile.NewBuilder()
	b.AddEmails(s.req.Email)
	b.AddRequestPhone(s.req.Phone)
	b.ApplyPivot(px)
	b.ApplySources(o.reg.Sources(s.apis))
	s.profile = b.Profile()

	chainedByName := make(map[string]model.APIResult, len(chained))
	for _, r := range chained {
		chainedByName[r.APIName] = r
	}
	conf := model.ClampConfidence(px.Confidence) + pivotBonus + float64(Aggregate(chainedByName))
	s.confidence = int(math.Round(math.Min(conf, 100)))
	s.phases = []int{1, 2, 3}
	s.current = 3

	log.Info("orchestrator: pivot search complete",
		zap.Int("discovered", len(px.DiscoveredProfiles)),
		zap.Int("chained", len(chainedByName)),
		zap.Int("confidence", s.confidence),
	)
	return true
}

// extract calls the extractor once. Any failure yields nil.
func (p pivot) extract(ctx context.Context, s *session) (*model.PivotExtraction, time.Duration) {
	o := p.o
	timeout := o.cfg.PivotTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := o.now()
	px, err := o.extractor.Extract(ctx, model.PivotRequest{
		Platform:   p.seed.Platform,
		ProfileURL: p.seed.ProfileURL,
		Username:   p.seed.Username,
		Name:       s.req.Name,
		Email:      s.req.Email,
		Phone:      s.req.Phone,
	})
	elapsed := o.now().Sub(start)
	switch {
	case err != nil:
		zap.L().Warn("orchestrator: pivot extraction failed",
			zap.String("search_id", s.id),
			zap.Error(err),
		)
		return nil, elapsed
	case px == nil, px.Status == model.PivotStatusFailed:
		return nil, elapsed
	}
	if px.Seed == (model.PivotSeed{}) {
		px.Seed = p.seed
	}
	return px, elapsed
}

type chainJob struct {
	adapter    string
	discovered model.DiscoveredProfile
}

// chain calls one adapter per mappable discovered profile, concurrently.
// Results are returned in discovery order so a later duplicate wins when
// recorded.
func (p pivot) chain(ctx context.Context, s *session, px *model.PivotExtraction) []model.APIResult {
	var jobs []chainJob
	for _, d := range px.DiscoveredProfiles {
		name, ok := adapter.ForPlatform(d.Platform)
		if !ok {
			zap.L().Debug("orchestrator: no adapter for platform",
				zap.String("search_id", s.id),
				zap.String("platform", d.Platform),
			)
			continue
		}
		if d.Confidence < minChainConfidence {
			zap.L().Debug("orchestrator: discovered profile below chain threshold",
				zap.String("search_id", s.id),
				zap.String("platform", d.Platform),
				zap.Float64("confidence", d.Confidence),
			)
			continue
		}
		jobs = append(jobs, chainJob{adapter: name, discovered: d})
	}

	name := s.req.Name
	if fn := px.ExtractedData.FullName; fn != nil && strings.TrimSpace(*fn) != "" {
		name = *fn
	}

	results := make([]model.APIResult, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		g.Go(func() error {
			r := p.o.caller.Call(ctx, j.adapter, model.AdapterRequest{
				SearchID:        s.id,
				Name:            name,
				Email:           s.req.Email,
				Phone:           s.req.Phone,
				TargetUsername:  deref(j.discovered.Username),
				TargetURL:       deref(j.discovered.URL),
				DiscoverySource: model.DiscoverySourcePivot,
			})
			if r.Answered {
				r.Confidence = math.Min(r.Confidence+chainBoost, 100)
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
