// Package cost estimates spend for model calls made during a search.
package cost

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps model ids to pricing.
type Rates map[string]ModelRate

// Calculator computes costs for model usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost in USD of one call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	if c == nil {
		return 0
	}
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Known reports whether model has a rate.
func (c *Calculator) Known(model string) bool {
	if c == nil {
		return false
	}
	_, ok := c.rates[model]
	return ok
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
	}
}
