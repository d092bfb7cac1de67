package ingest

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/graph"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// DefaultBatchConcurrency bounds concurrent ingestions within one batch
const DefaultBatchConcurrency = 4

// Pipeline turns normalized articles into linked graph nodes.
type Pipeline struct {
	store       *graph.Store
	resolver    *graph.Resolver
	defaults    Defaults
	extractor   Extractor
	mirror      Mirror
	concurrency int
	logger      *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithDefaults sets the placeholder policy for blank input fields
func WithDefaults(d Defaults) Option {
	return func(p *Pipeline) {
		p.defaults = d
	}
}

// WithExtractor sets the extractor used when no mentions are supplied
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) {
		p.extractor = e
	}
}

// WithMirror sets a secondary sink that receives every ingested article
func WithMirror(m Mirror) Option {
	return func(p *Pipeline) {
		p.mirror = m
	}
}

// WithBatchConcurrency bounds IngestBatch parallelism
func WithBatchConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the pipeline logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline writing into store
func NewPipeline(store *graph.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       store,
		resolver:    graph.NewResolver(store),
		concurrency: DefaultBatchConcurrency,
		logger:      logger.Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest folds one article into the graph and persists the store.
//
// A nil mentions slice runs the configured extractor on the text; an empty
// one means the article mentions nothing. MissingText, MissingSource and
// extraction failures abort before any node is created. A persistence failure
// returns both the Result (the article is in memory) and an *ErrPersistence.
func (p *Pipeline) Ingest(ctx context.Context, in ArticleInput, mentions []Mention) (*Result, error) {
	res, err := p.ingest(ctx, in, mentions)
	if err != nil {
		return nil, err
	}

	if err := p.store.Persist(); err != nil {
		return res, err
	}
	res.Persisted = true
	return res, nil
}

// IngestBatch ingests items concurrently and persists once at the end.
// Results keep input order; a failing item never stops the others. The
// returned error is only the final persistence failure, if any.
func (p *Pipeline) IngestBatch(ctx context.Context, items []BatchItem) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for i, item := range items {
		idx := i
		item := item
		g.Go(func() error {
			res, err := p.ingest(ctx, item.Input, item.Mentions)
			results[idx] = BatchResult{Index: idx, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	p.logger.Info("Batch ingested",
		zap.Int("items", len(items)),
		zap.Int("succeeded", succeeded),
	)

	if succeeded == 0 {
		return results, nil
	}
	if err := p.store.Persist(); err != nil {
		return results, err
	}
	for _, r := range results {
		if r.Result != nil {
			r.Result.Persisted = true
		}
	}
	return results, nil
}

// ingest builds the article and its edges without persisting.
func (p *Pipeline) ingest(ctx context.Context, in ArticleInput, mentions []Mention) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperrors.ErrMissingText
	}

	in = p.defaults.Apply(in)

	if mentions == nil && p.extractor != nil {
		extracted, err := p.extractor.Extract(ctx, in.Text)
		if err != nil {
			p.logger.Error("Entity extraction failed", zap.Error(err))
			return nil, err
		}
		mentions = extracted
	}

	res := &Result{Warnings: []graph.Warning{}}

	source, err := p.resolver.Resolve(graph.KindNewsSource, in.Source)
	if err != nil {
		return nil, err
	}
	if source.Node == nil {
		p.logger.Warn("Article rejected, no source label")
		return nil, apperrors.ErrMissingSource
	}

	category, err := p.resolver.Resolve(graph.KindCategory, in.Category)
	if err != nil {
		return nil, err
	}
	if category.Warning != nil {
		res.Warnings = append(res.Warnings, *category.Warning)
	}

	article := graph.NewNode(graph.KindArticle)
	setOptional(article, graph.PropTitle, in.Title)
	setOptional(article, graph.PropSourceLabel, in.Source)
	setOptional(article, graph.PropFullText, in.Text)
	setOptional(article, graph.PropTimestamp, in.Timestamp)
	article.Edges[graph.EdgePublishedBy] = []string{source.Node.ID}

	linked := []*graph.Node{source.Node}
	if category.Node != nil {
		article.Edges[graph.EdgeHasCategory] = []string{category.Node.ID}
		linked = append(linked, category.Node)
	}

	stored, err := p.store.Insert(article)
	if err != nil {
		return nil, err
	}

	var targets []string
	seen := make(map[string]bool, len(mentions))
	for _, m := range mentions {
		kind, ok := graph.EntityKindForTag(m.Type)
		if !ok {
			w := graph.UnknownEntityTypeWarning(m.Name, m.Type)
			res.Warnings = append(res.Warnings, w)
			p.logger.Warn("Skipping mention with unknown entity type",
				zap.String("name", m.Name),
				zap.String("type", m.Type),
				zap.String("article_id", stored.ID),
			)
			continue
		}

		r, err := p.resolver.Resolve(kind, m.Name)
		if err != nil {
			return nil, err
		}
		if r.Node == nil {
			res.Warnings = append(res.Warnings, *r.Warning)
			continue
		}
		if seen[r.Node.ID] {
			continue
		}
		seen[r.Node.ID] = true
		targets = append(targets, r.Node.ID)
		linked = append(linked, r.Node)
	}

	stored, err = p.store.SetEdges(stored.ID, graph.EdgeMentions, targets)
	if err != nil {
		return nil, err
	}
	res.Article = stored

	p.logger.Info("Article ingested",
		zap.String("id", stored.ID),
		zap.String("source", in.Source),
		zap.Int("mentions", len(targets)),
		zap.Int("warnings", len(res.Warnings)),
	)

	p.mirrorArticle(ctx, stored, linked)
	return res, nil
}

func (p *Pipeline) mirrorArticle(ctx context.Context, article *graph.Node, linked []*graph.Node) {
	if p.mirror == nil {
		return
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.MirrorTimeout)
	defer cancel()

	if err := p.mirror.MirrorArticle(mctx, article, linked); err != nil {
		p.logger.Warn("Failed to mirror article",
			zap.String("id", article.ID),
			zap.Error(err),
		)
	}
}

// Persist retries writing the store, for callers that got a persistence error.
func (p *Pipeline) Persist() error {
	return p.store.Persist()
}

// Store returns the underlying store
func (p *Pipeline) Store() *graph.Store {
	return p.store
}

// IsPersistenceFailure reports whether err means only the write-back failed.
func IsPersistenceFailure(err error) bool {
	var pe *apperrors.ErrPersistence
	return errors.As(err, &pe)
}

func setOptional(n *graph.Node, prop, value string) {
	if value != "" {
		n.SetProperty(prop, value)
	}
}
