package pricing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rate is the per-1K-token pricing for one model.
type Rate struct {
	// PromptPer1K is the cost per 1000 prompt tokens in USD.
	PromptPer1K float64 `yaml:"prompt"`

	// CompletionPer1K is the cost per 1000 completion tokens in USD.
	CompletionPer1K float64 `yaml:"completion"`
}

// Table maps model names to rates. It is built once at startup and
// read-only afterwards, so lookups need no locking.
type Table struct {
	rates map[string]Rate
}

// defaultRates covers the models the exporter monitors out of the box.
// A pricing file overrides or extends these.
var defaultRates = map[string]Rate{
	"gpt-4":         {PromptPer1K: 0.03, CompletionPer1K: 0.06},
	"gpt-3.5-turbo": {PromptPer1K: 0.0015, CompletionPer1K: 0.002},
	"claude-3-opus": {PromptPer1K: 0.015, CompletionPer1K: 0.075},
}

// NewTable creates a table with the built-in default rates.
func NewTable() *Table {
	rates := make(map[string]Rate, len(defaultRates))
	for model, rate := range defaultRates {
		rates[model] = rate
	}
	return &Table{rates: rates}
}

// LoadFile loads a rate table from a YAML file of the form:
//
//	gpt-4:
//	  prompt: 0.03
//	  completion: 0.06
//
// File entries override the built-in defaults for the same model name.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file %q: %w", path, err)
	}

	var fileRates map[string]Rate
	if err := yaml.Unmarshal(data, &fileRates); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file %q: %w", path, err)
	}

	table := NewTable()
	for model, rate := range fileRates {
		table.rates[model] = rate
	}
	return table, nil
}

// Lookup returns the rate for a model. It tries an exact match first, then
// a prefix match so dated snapshots resolve to their base model (e.g.
// "gpt-4-0613" matches "gpt-4"). When several patterns prefix-match, the
// longest one wins, so "gpt-4-turbo-preview" resolves to "gpt-4-turbo"
// rather than "gpt-4" regardless of map iteration order.
func (t *Table) Lookup(model string) (Rate, bool) {
	if rate, ok := t.rates[model]; ok {
		return rate, true
	}

	var (
		best    Rate
		bestLen = -1
	)
	for pattern, rate := range t.rates {
		if strings.HasPrefix(model, pattern) && len(pattern) > bestLen {
			best = rate
			bestLen = len(pattern)
		}
	}
	if bestLen < 0 {
		return Rate{}, false
	}
	return best, true
}

// Cost derives the USD cost for a token count pair. An unknown model costs
// 0.0 by policy: pricing gaps degrade gracefully instead of failing a poll.
//
// Cost is only consulted when the provider reported no direct monetary
// figure; a direct cost is always authoritative.
func (t *Table) Cost(model string, promptTokens, completionTokens uint64) float64 {
	rate, ok := t.Lookup(model)
	if !ok {
		return 0.0
	}
	return (float64(promptTokens)*rate.PromptPer1K + float64(completionTokens)*rate.CompletionPer1K) / 1000.0
}
