// Package api exposes ingestion, graph inspection and POS tagging over HTTP.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/ingest"
	"newsgraph/backend/internal/normalize"
	"newsgraph/backend/internal/postag"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// MaxBatchSize caps the number of articles in one batch request
const MaxBatchSize = constants.MaxBatchSize

// Handler serves the HTTP routes.
type Handler struct {
	pipeline *ingest.Pipeline
	store    *graph.Store
	tagger   *postag.Tagger
	logger   *zap.Logger
}

// NewHandler creates a handler. tagger may be nil, in which case POS tagging
// answers 503.
func NewHandler(pipeline *ingest.Pipeline, tagger *postag.Tagger) *Handler {
	return &Handler{
		pipeline: pipeline,
		store:    pipeline.Store(),
		tagger:   tagger,
		logger:   logger.Named("api"),
	}
}

type newsRequest struct {
	Text      string           `json:"text"`
	Title     string           `json:"title"`
	Source    string           `json:"source"`
	Category  string           `json:"category"`
	Timestamp string           `json:"timestamp"`
	Entities  []ingest.Mention `json:"entities"`
}

func (r newsRequest) input() ingest.ArticleInput {
	return ingest.ArticleInput{
		Text:      r.Text,
		Title:     r.Title,
		Source:    r.Source,
		Category:  r.Category,
		Timestamp: r.Timestamp,
	}
}

type htmlRequest struct {
	HTML      string           `json:"html" binding:"required"`
	Title     string           `json:"title"`
	Source    string           `json:"source"`
	Category  string           `json:"category"`
	Timestamp string           `json:"timestamp"`
	Entities  []ingest.Mention `json:"entities"`
}

type batchRequest struct {
	Articles []newsRequest `json:"articles" binding:"required"`
}

type batchItemResponse struct {
	Index     int             `json:"index"`
	Article   *graph.Node     `json:"article,omitempty"`
	Warnings  []graph.Warning `json:"warnings,omitempty"`
	Persisted bool            `json:"persisted"`
	Error     string          `json:"error,omitempty"`
}

type posTagRequest struct {
	Text string `json:"text"`
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"nodes":            h.store.Len(),
		"pos_model_loaded": h.tagger.Ready(),
	})
}

func (h *Handler) ingestNews(c *gin.Context) {
	var req newsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.ingest(c, req.input(), req.Entities)
}

func (h *Handler) ingestHTML(c *gin.Context) {
	var req htmlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in, err := normalize.FromHTML(req.HTML, ingest.ArticleInput{
		Title:     req.Title,
		Source:    req.Source,
		Category:  req.Category,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.ingest(c, in, req.Entities)
}

func (h *Handler) ingest(c *gin.Context, in ingest.ArticleInput, mentions []ingest.Mention) {
	res, err := h.pipeline.Ingest(c.Request.Context(), in, mentions)
	if err != nil {
		if res != nil && ingest.IsPersistenceFailure(err) {
			h.logger.Warn("Article kept in memory, snapshot write failed",
				zap.String("id", res.Article.ID),
				zap.Error(err),
			)
			c.JSON(http.StatusCreated, gin.H{
				"article":   res.Article,
				"warnings":  res.Warnings,
				"persisted": false,
				"error":     err.Error(),
			})
			return
		}
		h.fail(c, "Failed to ingest article", err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ingestBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Articles) > MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many articles in batch"})
		return
	}

	items := make([]ingest.BatchItem, len(req.Articles))
	for i, a := range req.Articles {
		items[i] = ingest.BatchItem{Input: a.input(), Mentions: a.Entities}
	}

	results, persistErr := h.pipeline.IngestBatch(c.Request.Context(), items)

	out := make([]batchItemResponse, len(results))
	for i, r := range results {
		item := batchItemResponse{Index: r.Index}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			item.Article = r.Result.Article
			item.Warnings = r.Result.Warnings
			item.Persisted = r.Result.Persisted
		}
		out[i] = item
	}

	body := gin.H{"results": out, "persisted": persistErr == nil}
	if persistErr != nil {
		h.logger.Warn("Batch kept in memory, snapshot write failed", zap.Error(persistErr))
		body["error"] = persistErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) getNode(c *gin.Context) {
	id := c.Param("id")

	node, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}
	neighbors, err := h.store.Neighbors(id)
	if err != nil {
		h.fail(c, "Failed to read neighbors", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"node": node, "neighbors": neighbors})
}

func (h *Handler) findNode(c *gin.Context) {
	kind := graph.Kind(c.Query("kind"))
	name := c.Query("name")

	spec, ok := graph.Spec(kind)
	if !ok || !spec.ResolvableByName {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of Person, Organization, Location, NewsSource, Category"})
		return
	}
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	node, ok := h.store.FindByUniqueName(kind, name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"nodes":       h.store.Len(),
		"by_kind":     h.store.CountByKind(),
		"article_seq": h.store.ArticleSeq(),
		"dirty":       h.store.Dirty(),
	})
}

func (h *Handler) persist(c *gin.Context) {
	if err := h.pipeline.Persist(); err != nil {
		h.fail(c, "Failed to persist graph", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "persisted", "nodes": h.store.Len()})
}

func (h *Handler) posTag(c *gin.Context) {
	if !h.tagger.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "POS tagger model is not loaded"})
		return
	}

	var req posTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Input text cannot be empty."})
		return
	}

	tagged, err := h.tagger.Tag(req.Text)
	if err != nil {
		h.fail(c, "POS tagging failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tagged_sentence": tagged,
		"model_version":   h.tagger.Version(),
	})
}

// fail maps an error to a status code and logs server-side failures
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var notFound *apperrors.ErrNodeNotFound
	var notLoaded *apperrors.ErrModelNotLoaded
	switch {
	case errors.Is(err, apperrors.ErrMissingSource), errors.Is(err, apperrors.ErrMissingText):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notLoaded):
		return http.StatusServiceUnavailable
	case apperrors.IsErrorType(err, apperrors.ErrorTypeExtraction):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
