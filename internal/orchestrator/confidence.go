package orchestrator

import (
	"math"

	"github.com/hushh/deepsearch/internal/model"
)

func statusWeight(s model.APIStatus) float64 {
	switch s {
	case model.APIStatusSuccess:
		return 1.5
	case model.APIStatusFailed:
		return 0.5
	default:
		return 1.0
	}
}

// Aggregate returns the weighted mean confidence of every settled result,
// rounded to an integer. Failures are down-weighted, not dropped. It is 0
// when nothing has settled.
func Aggregate(apis map[string]model.APIResult) int {
	var sum, weights float64
	for _, r := range apis {
		if !r.Status.Settled() {
			continue
		}
		w := statusWeight(r.Status)
		sum += r.Confidence * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return int(math.Round(sum / weights))
}

// FinalStatus derives the session status from its adapter results.
func FinalStatus(apis map[string]model.APIResult) model.SessionStatus {
	var success, failed, settled int
	for _, r := range apis {
		switch r.Status {
		case model.APIStatusSuccess:
			success++
		case model.APIStatusFailed:
			failed++
		}
		if r.Status.Settled() {
			settled++
		}
	}
	switch {
	case len(apis) > 0 && failed == len(apis):
		return model.SessionStatusFailed
	case success < settled:
		return model.SessionStatusPartial
	default:
		return model.SessionStatusComplete
	}
}
