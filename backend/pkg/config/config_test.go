package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "newsgraph/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GRAPH_STORE_PATH", "")
	t.Setenv("EXTRACTOR", "")
	t.Setenv("NEO4J_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/news_graph.json", cfg.GraphStorePath)
	assert.Equal(t, "rules", cfg.Extractor)
	assert.True(t, cfg.FillDefaults)
	assert.Equal(t, "TestSource", cfg.DefaultSource)
	assert.Equal(t, "TestCategory", cfg.DefaultCategory)
	assert.False(t, cfg.Neo4jEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRAPH_STORE_PATH", "/tmp/graph.json")
	t.Setenv("INGEST_FILL_DEFAULTS", "false")
	t.Setenv("INGEST_BATCH_CONCURRENCY", "8")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("EXTRACTOR", "rules")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/graph.json", cfg.GraphStorePath)
	assert.False(t, cfg.FillDefaults)
	assert.Equal(t, 8, cfg.BatchConcurrency)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GraphStorePath:   "graph.json",
			BatchConcurrency: 1,
			Extractor:        "rules",
			FillDefaults:     true,
			DefaultSource:    "TestSource",
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Extractor = "llm"
	err := cfg.Validate()
	var missing *apperrors.ErrConfigMissingRequired
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "LLM_MODEL", missing.Field)

	cfg = base()
	cfg.Extractor = "spacy"
	assert.True(t, apperrors.IsErrorType(cfg.Validate(), apperrors.ErrorTypeConfig))

	cfg = base()
	cfg.Neo4jEnabled = true
	cfg.Neo4jURI = "bolt://localhost:7687"
	require.ErrorAs(t, cfg.Validate(), &missing)
	assert.Equal(t, "NEO4J_PASSWORD", missing.Field)

	cfg = base()
	cfg.BatchConcurrency = 0
	assert.Error(t, cfg.Validate())
}
