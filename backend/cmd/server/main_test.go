package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsgraph/backend/internal/api"
	"newsgraph/backend/internal/extract"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/ingest"
	"newsgraph/backend/pkg/config"
)

// TestServerWiring builds the same stack main does and ingests through it,
// then restarts from the snapshot.
func TestServerWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "news_graph.json")

	cfg := &config.Config{Extractor: config.ExtractorRules}
	extractor, err := extract.FromConfig(cfg)
	require.NoError(t, err)

	build := func() (*gin.Engine, *graph.Store) {
		store, err := graph.NewStore(path)
		require.NoError(t, err)
		pipeline := ingest.NewPipeline(store,
			ingest.WithExtractor(extractor),
			ingest.WithDefaults(ingest.Defaults{Enabled: true, Title: "TestTitle", Source: "TestSource", Category: "TestCategory"}),
		)
		return api.NewRouter(api.NewHandler(pipeline, nil), zap.NewNop(), false), store
	}

	router, _ := build()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/news", bytes.NewBufferString(`{"text":"Joe Biden visited Ukraine."}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["persisted"])

	_, store := build()
	src, ok := store.FindByUniqueName(graph.KindNewsSource, "TestSource")
	require.True(t, ok)
	assert.Contains(t, src.ID, "TestSource_NewsSource_")
	assert.Equal(t, 1, store.CountByKind()[graph.KindArticle])
	assert.Equal(t, 2, store.CountByKind()[graph.KindLocation]+store.CountByKind()[graph.KindPerson])
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := graph.NewStore(filepath.Join(t.TempDir(), "g.json"))
	require.NoError(t, err)
	router := api.NewRouter(api.NewHandler(ingest.NewPipeline(store), nil), zap.NewNop(), false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}
