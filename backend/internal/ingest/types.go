package ingest

import (
	"context"
	"strings"
	"time"

	"newsgraph/backend/internal/graph"
)

// ArticleInput is a normalized article as handed over by the boundary.
type ArticleInput struct {
	Text      string `json:"text"`
	Title     string `json:"title,omitempty"`
	Source    string `json:"source,omitempty"`
	Category  string `json:"category,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Mention is one (name, type tag) pair produced by an extractor.
type Mention struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Extractor finds entity mentions in article text. Output order is preserved
// by the pipeline.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Mention, error)
}

// Mirror receives every successfully ingested article together with the
// nodes it links to.
type Mirror interface {
	MirrorArticle(ctx context.Context, article *graph.Node, linked []*graph.Node) error
}

// Defaults fills blank input fields with placeholder values when Enabled.
type Defaults struct {
	Enabled  bool
	Title    string
	Source   string
	Category string
	Now      func() time.Time
}

// Apply returns in with blank fields filled. Text is never defaulted.
func (d Defaults) Apply(in ArticleInput) ArticleInput {
	if !d.Enabled {
		return in
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = d.Title
	}
	if strings.TrimSpace(in.Source) == "" {
		in.Source = d.Source
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = d.Category
	}
	if strings.TrimSpace(in.Timestamp) == "" {
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		in.Timestamp = now().UTC().Format(time.RFC3339)
	}
	return in
}

// Result is the outcome of one ingestion. Article is set whenever the article
// reached the in-memory graph, even if persisting it failed.
type Result struct {
	Article   *graph.Node     `json:"article"`
	Warnings  []graph.Warning `json:"warnings"`
	Persisted bool            `json:"persisted"`
}

// BatchItem is one article of a batch. A nil Mentions slice asks the pipeline
// to run its extractor.
type BatchItem struct {
	Input    ArticleInput
	Mentions []Mention
}

// BatchResult pairs a batch item with its outcome, in input order.
type BatchResult struct {
	Index  int
	Result *Result
	Err    error
}
