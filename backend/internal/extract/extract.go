// Package extract provides the entity extractors the ingestion pipeline can
// run on article text.
package extract

import (
	"errors"
	"fmt"

	"newsgraph/backend/internal/adapter"
	"newsgraph/backend/internal/ingest"
	"newsgraph/backend/pkg/config"
)

var errNoJSONObject = errors.New("no JSON object in answer")

// FromConfig builds the extractor selected by cfg.Extractor.
func FromConfig(cfg *config.Config) (ingest.Extractor, error) {
	switch cfg.Extractor {
	case "", config.ExtractorRules:
		return NewRuleExtractor(), nil
	case config.ExtractorLLM:
		llm := adapter.NewLLMAdapter(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
		return NewLLMExtractor(llm), nil
	}
	return nil, fmt.Errorf("unknown extractor %q", cfg.Extractor)
}
