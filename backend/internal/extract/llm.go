package extract

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"newsgraph/backend/internal/adapter"
	"newsgraph/backend/internal/ingest"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

const llmExtractorName = "llm"

const extractionPrompt = `You extract named entities from news articles.
Return ONLY a JSON object of the form {"entities":[{"name":"...","type":"..."}]}.
"type" must be one of Person, Organization, Location.
Use each entity's name exactly as it appears in the article, list entities in
order of first appearance, and return {"entities":[]} if there are none.`

// Generator is the part of the LLM adapter the extractor needs
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMsg string) (*adapter.Response, error)
}

// LLMExtractor asks a chat model for entities and parses its JSON answer.
type LLMExtractor struct {
	llm    Generator
	logger *zap.Logger
}

// NewLLMExtractor creates an extractor backed by llm
func NewLLMExtractor(llm Generator) *LLMExtractor {
	return &LLMExtractor{
		llm:    llm,
		logger: logger.Named("extract.llm"),
	}
}

type llmEntities struct {
	Entities []ingest.Mention `json:"entities"`
}

// Extract implements ingest.Extractor. Only the answer's shape is checked;
// type tags pass through unvalidated.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]ingest.Mention, error) {
	resp, err := e.llm.Generate(ctx, extractionPrompt, text)
	if err != nil {
		return nil, apperrors.NewExtractionFailed(llmExtractorName, "model request failed", err)
	}

	mentions, err := parseEntities(resp.Content)
	if err != nil {
		e.logger.Warn("Unparseable extraction answer",
			zap.String("content", truncate(resp.Content, 200)),
			zap.Error(err),
		)
		return nil, apperrors.NewExtractionFailed(llmExtractorName, "cannot parse model answer", err)
	}

	e.logger.Debug("Entities extracted", zap.Int("count", len(mentions)))
	return mentions, nil
}

// parseEntities decodes the JSON object between the first '{' and the last '}',
// tolerating code fences and chatter around it.
func parseEntities(content string) ([]ingest.Mention, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, errNoJSONObject
	}

	var out llmEntities
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, err
	}

	mentions := make([]ingest.Mention, 0, len(out.Entities))
	for _, m := range out.Entities {
		m.Name = strings.TrimSpace(m.Name)
		m.Type = strings.TrimSpace(m.Type)
		if m.Name == "" {
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ ingest.Extractor = (*LLMExtractor)(nil)
