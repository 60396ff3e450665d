package providers

import (
	"math"
	"strings"
)

// ModelPricing holds per-1K token prices in USD.
type ModelPricing struct {
	// InputPer1K is the price per 1,000 input tokens.
	InputPer1K float64 `yaml:"input_per_1k"`

	// OutputPer1K is the price per 1,000 output tokens.
	OutputPer1K float64 `yaml:"output_per_1k"`
}

// Pricing is a model pricing table with a designated default model.
//
// Lookup order is exact match, then the longest matching prefix (so
// "gpt-4o-mini-2024-07-18" prices as "gpt-4o-mini"), then DefaultModel.
type Pricing struct {
	Models       map[string]ModelPricing
	DefaultModel string
}

// NewPricing builds a pricing table. The default model must be present in
// models for unknown models to be priced at all.
func NewPricing(models map[string]ModelPricing, defaultModel string) *Pricing {
	copied := make(map[string]ModelPricing, len(models))
	for k, v := range models {
		copied[k] = v
	}
	return &Pricing{Models: copied, DefaultModel: defaultModel}
}

// Lookup returns the pricing for model and whether a non-default entry matched.
// Unknown models are priced as DefaultModel, which itself resolves by exact
// name or longest prefix.
func (p *Pricing) Lookup(model string) (ModelPricing, bool) {
	if mp, ok := p.match(model); ok {
		return mp, true
	}
	mp, _ := p.match(p.DefaultModel)
	return mp, false
}

func (p *Pricing) match(model string) (ModelPricing, bool) {
	if mp, ok := p.Models[model]; ok {
		return mp, true
	}

	best := ""
	for name := range p.Models {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return p.Models[best], true
	}
	return ModelPricing{}, false
}

// Cost prices the token counts for model, rounded to 1e-8 USD.
func (p *Pricing) Cost(model string, tokensIn, tokensOut int) float64 {
	mp, _ := p.Lookup(model)
	cost := tokenCost(tokensIn, mp.InputPer1K) + tokenCost(tokensOut, mp.OutputPer1K)
	return math.Round(cost*1e8) / 1e8
}

func tokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000.0 * costPer1K
}
