package pivot

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/cost"
	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/pkg/anthropic"
)

// ErrInvalidRequest is returned when the seed is incomplete.
var ErrInvalidRequest = eris.New("pivot: missing required fields: platform, profileUrl, username")

// LocalExtractor runs the extraction in-process against the Messages API.
type LocalExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	costs     *cost.Calculator
}

// NewLocalExtractor returns an extractor that prompts modelID through client.
func NewLocalExtractor(client anthropic.Client, modelID string, maxTokens int64) *LocalExtractor {
	if maxTokens <= 0 {
		maxTokens = 3000
	}
	return &LocalExtractor{
		client:    client,
		model:     modelID,
		maxTokens: maxTokens,
		costs:     cost.NewCalculator(cost.DefaultRates()),
	}
}

// WithRates replaces the pricing used for the per-call cost estimate.
func (e *LocalExtractor) WithRates(r cost.Rates) *LocalExtractor {
	e.costs = cost.NewCalculator(r)
	return e
}

// CallCost returns the estimated USD cost of one call's usage.
func (e *LocalExtractor) CallCost(u anthropic.TokenUsage) float64 {
	return e.costs.Claude(e.model, u.InputTokens, u.OutputTokens)
}

type aiAnswer struct {
	ExtractedData      *model.ExtractedData      `json:"extractedData"`
	DiscoveredProfiles []model.DiscoveredProfile `json:"discoveredProfiles"`
	SearchQueries      *model.SearchQueries      `json:"searchQueries"`
}

// Extract implements the orchestrator's extractor.
func (e *LocalExtractor) Extract(ctx context.Context, req model.PivotRequest) (*model.PivotExtraction, error) {
	if strings.TrimSpace(req.Platform) == "" || strings.TrimSpace(req.ProfileURL) == "" || strings.TrimSpace(req.Username) == "" {
		return nil, ErrInvalidRequest
	}

	temp := 0.3
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(req)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pivot: extract")
	}
	resp.Usage.Log(e.model, "pivot_extract")
	callCost := e.CallCost(resp.Usage)

	text := stripFences(resp.Text())
	if text == "" {
		return nil, eris.New("pivot: empty model response")
	}
	var ans aiAnswer
	if err := json.Unmarshal([]byte(text), &ans); err != nil {
		zap.L().Debug("pivot: unparseable model response", zap.String("text", text))
		return nil, eris.Wrap(err, "pivot: parse model response")
	}

	px := &model.PivotExtraction{
		Seed: model.PivotSeed{
			Platform:   req.Platform,
			ProfileURL: req.ProfileURL,
			Username:   req.Username,
		},
		DiscoveredProfiles: ans.DiscoveredProfiles,
	}
	if ans.ExtractedData != nil {
		px.ExtractedData = *ans.ExtractedData
	}
	if ans.SearchQueries != nil {
		px.SearchQueries = *ans.SearchQueries
	}
	if px.DiscoveredProfiles == nil {
		px.DiscoveredProfiles = []model.DiscoveredProfile{}
	}
	px.Confidence = Completeness(ans.ExtractedData, len(px.DiscoveredProfiles))
	px.Status = model.PivotStatusPartial
	if px.Confidence >= 60 {
		px.Status = model.PivotStatusSuccess
	}

	zap.L().Info("pivot: extraction complete",
		zap.String("platform", req.Platform),
		zap.Float64("confidence", px.Confidence),
		zap.Int("discovered", len(px.DiscoveredProfiles)),
		zap.Float64("cost_usd", callCost),
	)
	return px, nil
}

// Completeness scores how much an extraction recovered. A confirmed seed
// starts at 50.
func Completeness(ed *model.ExtractedData, discovered int) float64 {
	score := 50
	if ed != nil {
		if present(ed.FullName) {
			score += 10
		}
		if present(ed.CurrentTitle) && present(ed.CurrentCompany) {
			score += 10
		}
		if len(ed.WorkHistory) > 0 {
			score += 10
		}
		if len(ed.Education) > 0 {
			score += 5
		}
		if len(ed.Skills) > 0 {
			score += 5
		}
		if present(ed.Bio) {
			score += 5
		}
	}
	score += min(discovered*3, 15)
	return float64(min(score, 100))
}

func present(s *string) bool {
	return s != nil && *s != ""
}
