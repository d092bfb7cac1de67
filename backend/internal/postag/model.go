package postag

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"newsgraph/backend/internal/constants"
)

// DefaultVersion is reported when a model carries no version of its own
const DefaultVersion = constants.DefaultPOSModelVersion

// ErrNoTrainingData is returned by Train when no tagged token is given
var ErrNoTrainingData = errors.New("no training data")

// TaggedWord is a token with its part-of-speech tag.
type TaggedWord struct {
	Word string `json:"word"`
	Tag  string `json:"tag"`
}

// Model is a naive Bayes classifier over token features, stored as counts.
type Model struct {
	Version   string `json:"version"`
	TrainedAt string `json:"trained_at,omitempty"`
	Sentences int    `json:"sentences"`
	Tokens    int    `json:"tokens"`

	// TagCounts is how many training tokens carry each tag
	TagCounts map[string]int `json:"tag_counts"`
	// FeatureCounts maps a feature key to per-tag occurrence counts
	FeatureCounts map[string]map[string]int `json:"feature_counts"`
	// FeatureValues is the number of distinct values seen per feature name
	FeatureValues map[string]int `json:"feature_values"`

	tags []string
}

// Train counts features of every token in sentences.
func Train(sentences [][]TaggedWord, version string) (*Model, error) {
	if version == "" {
		version = DefaultVersion
	}
	m := &Model{
		Version:       version,
		TrainedAt:     time.Now().UTC().Format(time.RFC3339),
		TagCounts:     make(map[string]int),
		FeatureCounts: make(map[string]map[string]int),
		FeatureValues: make(map[string]int),
	}

	for _, sentence := range sentences {
		if len(sentence) == 0 {
			continue
		}
		tokens := make([]string, len(sentence))
		for i, tw := range sentence {
			tokens[i] = tw.Word
		}

		m.Sentences++
		for i, tw := range sentence {
			m.Tokens++
			m.TagCounts[tw.Tag]++
			for _, f := range Features(tokens, i) {
				key := f.Key()
				counts, ok := m.FeatureCounts[key]
				if !ok {
					counts = make(map[string]int)
					m.FeatureCounts[key] = counts
					m.FeatureValues[f.Name]++
				}
				counts[tw.Tag]++
			}
		}
	}

	if m.Tokens == 0 {
		return nil, ErrNoTrainingData
	}
	m.index()
	return m, nil
}

func (m *Model) index() {
	m.tags = make([]string, 0, len(m.TagCounts))
	for tag := range m.TagCounts {
		m.tags = append(m.tags, tag)
	}
	sort.Strings(m.tags)
}

// Tags returns the known tags in sorted order
func (m *Model) Tags() []string {
	return append([]string(nil), m.tags...)
}

// Predict returns one tag per token.
func (m *Model) Predict(tokens []string) []string {
	out := make([]string, len(tokens))
	for i := range tokens {
		out[i] = m.predictOne(Features(tokens, i))
	}
	return out
}

// predictOne picks the tag with the highest log posterior using add-one
// smoothing per feature. Ties go to the alphabetically first tag.
func (m *Model) predictOne(features []Feature) string {
	best, bestScore := "", math.Inf(-1)
	total := float64(m.Tokens)

	for _, tag := range m.tags {
		tagCount := float64(m.TagCounts[tag])
		score := math.Log(tagCount / total)
		for _, f := range features {
			seen := float64(m.FeatureCounts[f.Key()][tag])
			values := float64(m.FeatureValues[f.Name])
			score += math.Log((seen + 1) / (tagCount + values + 1))
		}
		if score > bestScore {
			best, bestScore = tag, score
		}
	}
	return best
}

// LoadModel reads a model saved by Save.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if m.Tokens == 0 || len(m.TagCounts) == 0 {
		return nil, fmt.Errorf("model %s has no training counts", path)
	}
	if m.FeatureCounts == nil {
		m.FeatureCounts = make(map[string]map[string]int)
	}
	if m.FeatureValues == nil {
		m.FeatureValues = make(map[string]int)
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	m.index()
	return &m, nil
}

// Save writes the model to a temporary file and renames it over path.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace model: %w", err)
	}
	return nil
}
