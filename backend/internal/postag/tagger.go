package postag

import (
	"go.uber.org/zap"

	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// Tagger serves a model loaded once at startup. A tagger whose model failed
// to load stays usable as a value but every Tag call fails.
type Tagger struct {
	path    string
	model   *Model
	loadErr error
	logger  *zap.Logger
}

// NewTagger loads the model at path. Load failures are logged and kept; they
// surface from Tag as ErrModelNotLoaded.
func NewTagger(path string) *Tagger {
	t := &Tagger{
		path:   path,
		logger: logger.Named("postag"),
	}

	m, err := LoadModel(path)
	if err != nil {
		t.loadErr = err
		t.logger.Error("POS model not loaded, tagging disabled",
			zap.String("path", path),
			zap.Error(err),
		)
		return t
	}

	t.model = m
	t.logger.Info("POS model loaded",
		zap.String("path", path),
		zap.String("version", m.Version),
		zap.Int("tags", len(m.TagCounts)),
	)
	return t
}

// NewTaggerFromModel wraps an already trained model
func NewTaggerFromModel(m *Model) *Tagger {
	return &Tagger{model: m, logger: logger.Named("postag")}
}

// Ready reports whether a model is loaded
func (t *Tagger) Ready() bool {
	return t != nil && t.model != nil
}

// Version returns the loaded model version, empty if none
func (t *Tagger) Version() string {
	if !t.Ready() {
		return ""
	}
	return t.model.Version
}

// Tag whitespace-tokenizes text and returns one tag per token.
func (t *Tagger) Tag(text string) ([]TaggedWord, error) {
	if !t.Ready() {
		var path string
		var cause error
		if t != nil {
			path, cause = t.path, t.loadErr
		}
		return nil, apperrors.NewModelNotLoaded(path, cause)
	}

	tokens := Tokenize(text)
	tags := t.model.Predict(tokens)

	out := make([]TaggedWord, len(tokens))
	for i, tok := range tokens {
		out[i] = TaggedWord{Word: tok, Tag: tags[i]}
	}
	return out, nil
}
