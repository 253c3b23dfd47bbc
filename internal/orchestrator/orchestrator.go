// Package orchestrator runs a deep search: it fans a request out to the
// registered adapters, either phase by phase or seeded from a confirmed
// profile, then aggregates confidence and merges a single profile.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/adapter"
	"github.com/hushh/deepsearch/internal/metrics"
	"github.com/hushh/deepsearch/internal/model"
)

// ErrValidation matches every request rejected before any adapter call.
var ErrValidation = &ValidationError{Message: "invalid request"}

// ValidationError is a request the orchestrator refuses to run.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Enricher performs the up-front phone lookup.
type Enricher interface {
	Enrich(ctx context.Context, phone, name string) (*model.PhoneEnrichment, error)
}

// Extractor analyses a user-confirmed profile.
type Extractor interface {
	Extract(ctx context.Context, req model.PivotRequest) (*model.PivotExtraction, error)
}

// Saver persists finished sessions.
type Saver interface {
	SaveSearch(ctx context.Context, req model.SearchRequest, s *model.SearchSession) error
}

// Config tunes phase gating, the pivot deadline, and persistence.
type Config struct {
	// Phase2Threshold gates phase 2: it runs while confidence is below it.
	Phase2Threshold int
	// Phase3Threshold gates phase 3 and any later phase.
	Phase3Threshold int
	PivotTimeout    time.Duration
	// PersistDetached saves sessions in the background after responding.
	PersistDetached bool
	PersistTimeout  time.Duration
}

// DefaultConfig returns the production gating thresholds and deadlines.
func DefaultConfig() Config {
	return Config{
		Phase2Threshold: 50,
		Phase3Threshold: 70,
		PivotTimeout:    30 * time.Second,
		PersistDetached: true,
		PersistTimeout:  10 * time.Second,
	}
}

func (c Config) threshold(phase int) int {
	if phase <= 2 {
		return c.Phase2Threshold
	}
	return c.Phase3Threshold
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnricher enables the phone lookup before phase 1.
func WithEnricher(e Enricher) Option { return func(o *Orchestrator) { o.enricher = e } }

// WithExtractor enables pivot mode.
func WithExtractor(x Extractor) Option { return func(o *Orchestrator) { o.extractor = x } }

// WithStore persists every finished session.
func WithStore(s Saver) Option { return func(o *Orchestrator) { o.store = s } }

// WithMetrics records search outcomes.
func WithMetrics(m *metrics.Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

// WithIDGenerator overrides search id generation.
func WithIDGenerator(fn func() string) Option { return func(o *Orchestrator) { o.newID = fn } }

// Orchestrator runs searches. It holds no per-search state and is safe for
// concurrent use.
type Orchestrator struct {
	reg       *adapter.Registry
	caller    adapter.Caller
	cfg       Config
	enricher  Enricher
	extractor Extractor
	store     Saver
	metrics   *metrics.Metrics
	newID     func() string
	now       func() time.Time

	saves sync.WaitGroup
}

// New creates an Orchestrator over the adapters in reg.
func New(reg *adapter.Registry, caller adapter.Caller, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reg:    reg,
		caller: caller,
		cfg:    cfg,
		newID:  model.NewSearchID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewSearchID mints an id for a request that never reaches Search.
func (o *Orchestrator) NewSearchID() string { return o.newID() }

// Search runs one deep search under the id pinned on ctx, minting one when
// none is set. On a validation failure it returns a failed session carrying
// only the search id, together with a ValidationError.
func (o *Orchestrator) Search(ctx context.Context, req model.SearchRequest) (*model.SearchSession, error) {
	start := o.now()
	id := model.SearchIDFromContext(ctx)
	if id == "" {
		id = o.newID()
	}
	log := zap.L().With(zap.String("search_id", id))

	if strings.TrimSpace(req.Name) == "" {
		return &model.SearchSession{SearchID: id, Status: model.SessionStatusFailed}, &ValidationError{Message: "Name is required"}
	}

	s := newSession(id, req, o.reg, start)
	ran := false
	if st := o.strategyFor(req); st != nil {
		ran = st.Run(ctx, s)
		if !ran {
			log.Info("orchestrator: pivot extraction unavailable, falling back to phased search")
			s.reset(o.reg)
		}
	}
	if !ran {
		phased{o}.Run(ctx, s)
	}

	out := s.finalize(o.now())
	log.Info("orchestrator: search complete",
		zap.String("mode", out.Mode),
		zap.String("status", string(out.Status)),
		zap.Int("confidence", out.OverallConfidence),
		zap.Ints("phases", out.PhasesCompleted),
		zap.Int64("elapsed_ms", out.ExecutionTimeMs),
	)
	o.metrics.ObserveSearch(out.Mode, string(out.Status), out.OverallConfidence, time.Duration(out.ExecutionTimeMs)*time.Millisecond)

	o.persist(ctx, req, out)
	return out, nil
}

// strategy is one way of running a search. Run reports false when the
// strategy could not produce a result and the caller should fall back.
type strategy interface {
	Run(ctx context.Context, s *session) bool
}

// strategyFor picks the pivot strategy for seeded requests. nil means phased.
func (o *Orchestrator) strategyFor(req model.SearchRequest) strategy {
	if req.PivotProfile == nil {
		return nil
	}
	return pivot{o: o, seed: *req.PivotProfile}
}

func (o *Orchestrator) persist(ctx context.Context, req model.SearchRequest, out *model.SearchSession) {
	if o.store == nil {
		return
	}
	save := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.persistTimeout())
		defer cancel()
		if err := o.store.SaveSearch(ctx, req, out); err != nil {
			zap.L().Error("orchestrator: save search session",
				zap.String("search_id", out.SearchID),
				zap.Error(err),
			)
			o.metrics.PersistFailed()
		}
	}
	if !o.cfg.PersistDetached {
		save()
		return
	}
	o.saves.Add(1)
	go func() {
		defer o.saves.Done()
		save()
	}()
}

func (o *Orchestrator) persistTimeout() time.Duration {
	if o.cfg.PersistTimeout > 0 {
		return o.cfg.PersistTimeout
	}
	return 10 * time.Second
}

// Wait blocks until detached saves finish or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
