package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsgraph/backend/internal/extract"
	"newsgraph/backend/internal/graph"
	"newsgraph/backend/internal/ingest"
	"newsgraph/backend/internal/postag"
)

type testServer struct {
	router *gin.Engine
	store  *graph.Store
	dir    string
}

func newTestServer(t *testing.T, tagger *postag.Tagger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := graph.NewStore(filepath.Join(dir, "graph.json"))
	require.NoError(t, err)

	p := ingest.NewPipeline(store, ingest.WithExtractor(extract.NewRuleExtractor()))
	h := NewHandler(p, tagger)
	return &testServer{
		router: NewRouter(h, zap.NewNop(), false),
		store:  store,
		dir:    dir,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func trainedTagger(t *testing.T) *postag.Tagger {
	t.Helper()
	m, err := postag.Train([][]postag.TaggedWord{
		{{Word: "මම", Tag: "PRP"}, {Word: "ගෙදර", Tag: "NNC"}, {Word: "යමි", Tag: "VFM"}},
		{{Word: "ඔහු", Tag: "PRP"}, {Word: "පාසල", Tag: "NNC"}, {Word: "යයි", Tag: "VFM"}},
	}, "")
	require.NoError(t, err)
	return postag.NewTaggerFromModel(m)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/health", "/api/v1/health"} {
		w, body := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", body["status"])
		assert.EqualValues(t, 0, body["nodes"])
		assert.Equal(t, false, body["pos_model_loaded"])
	}
}

func TestIngestNews_ExplicitEntities(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, http.MethodPost, "/api/v1/news", map[string]interface{}{
		"text":     "Talks in Kyiv.",
		"title":    "Talks",
		"source":   "Reuters",
		"category": "World",
		"entities": []map[string]string{
			{"name": "Kyiv", "type": "Location"},
			{"name": "Kyiv", "type": "Location"},
			{"name": "Mars", "type": "Planet"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["persisted"])

	article := body["article"].(map[string]interface{})
	assert.Equal(t, "article_1", article["id"])
	edges := article["edges"].(map[string]interface{})
	assert.Len(t, edges["mentions"], 1)

	warnings := body["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Equal(t, "unknown_entity_type", warnings[0].(map[string]interface{})["code"])

	_, err := os.Stat(filepath.Join(s.dir, "graph.json"))
	assert.NoError(t, err)
}

func TestIngestNews_RunsExtractorWhenEntitiesAbsent(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, http.MethodPost, "/api/v1/news", map[string]interface{}{
		"text":   "Joe Biden discussed Ukraine.",
		"source": "Reuters",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	article := body["article"].(map[string]interface{})
	edges := article["edges"].(map[string]interface{})
	assert.Len(t, edges["mentions"], 2)
	assert.Nil(t, edges["hasCategory"])
}

func TestIngestNews_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing text", map[string]interface{}{"source": "Reuters"}},
		{"blank text", map[string]interface{}{"text": "   ", "source": "Reuters"}},
		{"missing source", map[string]interface{}{"text": "Joe Biden spoke."}},
		{"not json", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, "/api/v1/news", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Equal(t, 0, s.store.Len())
}

func TestIngestNews_PersistenceFailureKeepsArticle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := filepath.Join(t.TempDir(), "later")
	store, err := graph.NewStore(filepath.Join(dir, "graph.json"))
	require.NoError(t, err)
	router := NewRouter(NewHandler(ingest.NewPipeline(store), nil), zap.NewNop(), false)
	s := &testServer{router: router, store: store, dir: dir}

	w, body := s.do(t, http.MethodPost, "/api/v1/news", map[string]interface{}{
		"text": "Joe Biden spoke.", "source": "Reuters", "entities": []interface{}{},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, false, body["persisted"])
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, 2, store.Len())

	w, _ = s.do(t, http.MethodPost, "/api/v1/graph/persist", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	w, body = s.do(t, http.MethodPost, "/api/v1/graph/persist", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "persisted", body["status"])
}

func TestIngestHTML(t *testing.T) {
	s := newTestServer(t, nil)

	page := `<html><head>
<meta property="og:title" content="Biden in Kyiv">
<meta property="og:site_name" content="Daily Mirror">
</head><body><article><p>Joe Biden arrived in Ukraine.</p></article></body></html>`

	w, body := s.do(t, http.MethodPost, "/api/v1/news/html", map[string]interface{}{
		"html": page, "category": "World",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	article := body["article"].(map[string]interface{})
	props := article["properties"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Biden in Kyiv"}, props["title"])
	assert.Equal(t, []interface{}{"Daily Mirror"}, props["sourceLabel"])

	_, ok := s.store.FindByUniqueName(graph.KindCategory, "World")
	assert.True(t, ok)

	w, _ = s.do(t, http.MethodPost, "/api/v1/news/html", map[string]interface{}{
		"html": "<html><body></body></html>", "source": "Reuters",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestBatch(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, http.MethodPost, "/api/v1/news/batch", map[string]interface{}{
		"articles": []map[string]interface{}{
			{"text": "Joe Biden at the White House.", "source": "Reuters"},
			{"text": "no source here"},
			{"text": "Ukraine update.", "source": "AP", "category": "World"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["persisted"])

	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Nil(t, results[0].(map[string]interface{})["error"])
	assert.NotEmpty(t, results[1].(map[string]interface{})["error"])
	assert.Equal(t, true, results[2].(map[string]interface{})["persisted"])
	assert.Equal(t, 2, s.store.CountByKind()[graph.KindArticle])
}

func TestIngestBatch_TooLarge(t *testing.T) {
	s := newTestServer(t, nil)

	articles := make([]map[string]string, MaxBatchSize+1)
	for i := range articles {
		articles[i] = map[string]string{"text": "x", "source": "Reuters"}
	}
	w, _ := s.do(t, http.MethodPost, "/api/v1/news/batch", map[string]interface{}{"articles": articles})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, s.store.Len())
}

func TestGraphEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.do(t, http.MethodPost, "/api/v1/news", map[string]interface{}{
		"text": "Joe Biden spoke.", "source": "Reuters", "category": "Politics",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	articleID := body["article"].(map[string]interface{})["id"].(string)

	w, body = s.do(t, http.MethodGet, "/api/v1/graph/nodes/"+articleID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	neighbors := body["neighbors"].(map[string]interface{})
	assert.Len(t, neighbors["publishedBy"], 1)
	assert.Len(t, neighbors["mentions"], 1)

	w, _ = s.do(t, http.MethodGet, "/api/v1/graph/nodes/article_404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	q := url.Values{"kind": {"Person"}, "name": {"Joe Biden"}}
	w, body = s.do(t, http.MethodGet, "/api/v1/graph/nodes?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Person", body["kind"])

	q = url.Values{"kind": {"Location"}, "name": {"Joe Biden"}}
	w, _ = s.do(t, http.MethodGet, "/api/v1/graph/nodes?"+q.Encode(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	q = url.Values{"kind": {"Article"}, "name": {"x"}}
	w, _ = s.do(t, http.MethodGet, "/api/v1/graph/nodes?"+q.Encode(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = s.do(t, http.MethodGet, "/api/v1/graph/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, body["nodes"])
	byKind := body["by_kind"].(map[string]interface{})
	assert.EqualValues(t, 1, byKind["Article"])
	assert.EqualValues(t, 1, byKind["Person"])
	assert.Equal(t, false, body["dirty"])
}

func TestPOSTag(t *testing.T) {
	s := newTestServer(t, trainedTagger(t))

	w, body := s.do(t, http.MethodPost, "/api/v1/nlp/pos-tag", map[string]string{"text": "මම ගෙදර යමි"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, postag.DefaultVersion, body["model_version"])

	tagged := body["tagged_sentence"].([]interface{})
	require.Len(t, tagged, 3)
	first := tagged[0].(map[string]interface{})
	assert.Equal(t, "මම", first["word"])
	assert.Equal(t, "PRP", first["tag"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/nlp/pos-tag", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPOSTag_ModelNotLoaded(t *testing.T) {
	s := newTestServer(t, postag.NewTagger(filepath.Join(t.TempDir(), "missing.json")))

	w, body := s.do(t, http.MethodPost, "/api/v1/nlp/pos-tag", map[string]string{"text": "මම"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/news", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
