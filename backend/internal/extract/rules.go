package extract

import (
	"context"
	"strings"

	"newsgraph/backend/internal/ingest"
)

// Rule maps a case-insensitive keyword to a canonical entity.
type Rule struct {
	Keyword string
	Name    string
	Type    string
}

// DefaultRules are the keyword rules the rule extractor starts with.
var DefaultRules = []Rule{
	{Keyword: "joe biden", Name: "Joe Biden", Type: "Person"},
	{Keyword: "white house", Name: "White House", Type: "Location"},
	{Keyword: "ukraine", Name: "Ukraine", Type: "Location"},
}

// RuleExtractor reports an entity for every rule whose keyword occurs in the
// text, in rule order.
type RuleExtractor struct {
	rules []Rule
}

// NewRuleExtractor creates an extractor over rules, or DefaultRules if none
func NewRuleExtractor(rules ...Rule) *RuleExtractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" {
			continue
		}
		r.Keyword = kw
		normalized = append(normalized, r)
	}
	return &RuleExtractor{rules: normalized}
}

// Extract implements ingest.Extractor
func (e *RuleExtractor) Extract(ctx context.Context, text string) ([]ingest.Mention, error) {
	lower := strings.ToLower(text)

	mentions := []ingest.Mention{}
	for _, r := range e.rules {
		if strings.Contains(lower, r.Keyword) {
			mentions = append(mentions, ingest.Mention{Name: r.Name, Type: r.Type})
		}
	}
	return mentions, nil
}

var _ ingest.Extractor = (*RuleExtractor)(nil)
