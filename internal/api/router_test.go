package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Harshitk-cp/knet/internal/config"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/graph"
	"github.com/Harshitk-cp/knet/internal/llm"
	"github.com/Harshitk-cp/knet/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t     *testing.T
	app   *App
	store *store.MemoryStore
	gen   *llm.MockClient
	key   string
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		ContradictionGate: true,
	}
	for _, m := range mutate {
		m(cfg)
	}
	s := store.NewMemoryStore()
	gen := llm.NewMockClient()
	return &testServer{
		t:     t,
		app:   NewApp(cfg, graph.New(), s, gen, zap.NewNop()),
		store: s,
		gen:   gen,
		key:   cfg.APIKey,
	}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.key != "" {
		req.Header.Set("Authorization", "Bearer "+ts.key)
	}
	rec := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) create(body map[string]any) domain.Statement {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/v1/statements", body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	var res struct {
		Statement domain.Statement `json:"statement"`
	}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Statement
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type fixture struct {
	ax1, ax2, th1, co1 domain.Statement
}

// seed builds: ax1, ax2 -> th1 -> co1.
func (ts *testServer) seed() fixture {
	var f fixture
	f.ax1 = ts.create(map[string]any{"type": "axiom", "content": "Humans need food", "tags": []string{"biology"}})
	f.ax2 = ts.create(map[string]any{"type": "axiom", "content": "Time is limited"})
	f.th1 = ts.create(map[string]any{
		"type": "theory", "content": "Food must be prioritized under time limits",
		"derived_from": []string{f.ax1.ID.String(), f.ax2.ID.String()}, "tags": []string{"planning"},
	})
	f.co1 = ts.create(map[string]any{
		"type": "conclusion", "content": "Plan meals ahead", "confidence": 0.7,
		"derived_from": []string{f.th1.ID.String()}, "tags": []string{"planning"},
	})
	return f
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.seed()

	rec := ts.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 4, health["statements"])

	rec = ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "request_count")

	rec = ts.do(http.MethodGet, "/metrics/prometheus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "knet_statements 4")
	assert.Contains(t, rec.Body.String(), "knet_http_requests_total")
}

func TestStatementLifecycle(t *testing.T) {
	ts := newTestServer(t)
	f := ts.seed()
	assert.Equal(t, 4, ts.store.Saves())

	rec := ts.do(http.MethodGet, "/v1/statements/"+f.th1.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Statement](t, rec)
	assert.Equal(t, domain.KindTheory, got.Kind)
	assert.Equal(t, []domain.StatementID{f.ax1.ID, f.ax2.ID}, got.DerivedFrom)

	rec = ts.do(http.MethodPatch, "/v1/statements/"+f.ax2.ID.String(), map[string]any{
		"content": "Time is scarce", "confidence": 0.9,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Time is scarce", decode[domain.Statement](t, rec).Content)

	rec = ts.do(http.MethodDelete, "/v1/statements/"+f.ax1.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodDelete, "/v1/statements/"+f.co1.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/statements/"+f.co1.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	snap, err := ts.store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Statements, 3)
}

func TestCreateErrors(t *testing.T) {
	ts := newTestServer(t)
	f := ts.seed()

	tests := []struct {
		name string
		body any
		want int
	}{
		{"malformed json", "not an object", http.StatusBadRequest},
		{"unknown field", map[string]any{"type": "axiom", "content": "x", "color": "red"}, http.StatusBadRequest},
		{"bad type", map[string]any{"type": "hunch", "content": "x"}, http.StatusBadRequest},
		{"missing content", map[string]any{"type": "axiom"}, http.StatusBadRequest},
		{"blank content", map[string]any{"type": "axiom", "content": "   "}, http.StatusBadRequest},
		{"confidence out of range", map[string]any{"type": "axiom", "content": "x", "confidence": 1.5}, http.StatusBadRequest},
		{"axiom with parents", map[string]any{"type": "axiom", "content": "x", "derived_from": []string{f.ax1.ID.String()}}, http.StatusBadRequest},
		{"theory without parents", map[string]any{"type": "theory", "content": "x"}, http.StatusBadRequest},
		{"dangling parent", map[string]any{"type": "theory", "content": "x", "derived_from": []string{"6f1d2c3e-0000-4000-8000-000000000000"}}, http.StatusUnprocessableEntity},
		{"duplicate id", map[string]any{"id": f.ax1.ID.String(), "type": "axiom", "content": "again"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/v1/statements", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdateCycleRejected(t *testing.T) {
	ts := newTestServer(t)
	f := ts.seed()

	rec := ts.do(http.MethodPatch, "/v1/statements/"+f.th1.ID.String(), map[string]any{
		"derived_from": []string{f.co1.ID.String()},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestContradictionGate(t *testing.T) {
	ts := newTestServer(t)
	ts.create(map[string]any{"type": "axiom", "content": "The sky is always blue"})

	rec := ts.do(http.MethodPost, "/v1/statements", map[string]any{"type": "axiom", "content": "The sky is never blue"})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["contradictions"], 1)

	rec = ts.do(http.MethodPost, "/v1/statements", map[string]any{"type": "axiom", "content": "The sky is never blue", "force": true})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/v1/contradictions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])
}

func TestContradictionGateDisabled(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.ContradictionGate = false })
	ts.create(map[string]any{"type": "axiom", "content": "The sky is always blue"})

	rec := ts.do(http.MethodPost, "/v1/statements", map[string]any{"type": "axiom", "content": "The sky is never blue"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["contradictions"], 1)
}

func TestDerivationEndpoints(t *testing.T) {
	ts := newTestServer(t)
	f := ts.seed()
	base := "/v1/statements/" + f.co1.ID.String()

	rec := ts.do(http.MethodGet, base+"/ancestors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode[map[string]any](t, rec)["count"])

	rec = ts.do(http.MethodGet, "/v1/statements/"+f.ax1.ID.String()+"/descendants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["count"])

	rec = ts.do(http.MethodGet, "/v1/statements/"+f.ax1.ID.String()+"/dependents", nil)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = ts.do(http.MethodGet, base+"/depth", nil)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["depth"])

	rec = ts.do(http.MethodGet, "/v1/statements/"+f.th1.ID.String()+"/confidence", nil)
	conf := decode[map[string]any](t, rec)
	assert.InDelta(t, 0.95, conf["confidence"], 1e-9)
	assert.Equal(t, false, conf["explicit"])

	rec = ts.do(http.MethodGet, base+"/chain", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	chain := decode[map[string]any](t, rec)
	assert.Len(t, chain["parents"], 1)

	rec = ts.do(http.MethodGet, "/v1/statements/"+f.ax1.ID.String()+"/relations", nil)
	rel := decode[map[string]any](t, rec)
	assert.Len(t, rel["children"], 1)

	rec = ts.do(http.MethodGet, "/v1/path?from="+f.ax1.ID.String()+"&to="+f.ax2.ID.String(), nil)
	path := decode[map[string]any](t, rec)
	assert.Equal(t, true, path["found"])
	assert.EqualValues(t, 2, path["hops"])

	rec = ts.do(http.MethodGet, "/v1/statements/not-a-uuid/chain", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodGet, "/v1/statements/6f1d2c3e-0000-4000-8000-000000000000/depth", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	f := ts.seed()

	count := func(path string) any {
		t.Helper()
		rec := ts.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[map[string]any](t, rec)["count"]
	}

	assert.EqualValues(t, 1, count("/v1/search?q=FOOD+must"))
	assert.EqualValues(t, 2, count("/v1/tags?tag=planning"))
	assert.EqualValues(t, 3, count("/v1/tags?tag=planning,biology&mode=any"))
	assert.EqualValues(t, 0, count("/v1/tags?tag=planning&tag=biology&mode=all"))
	assert.EqualValues(t, 2, count("/v1/statements?type=axiom"))
	assert.EqualValues(t, 1, count("/v1/statements?min_confidence=0.5"))
	assert.EqualValues(t, 1, count("/v1/statements?derived_from="+f.th1.ID.String()))
	assert.EqualValues(t, 1, count("/v1/analytics/orphans"))
	assert.EqualValues(t, 2, count("/v1/recent?limit=2"))

	rec := ts.do(http.MethodGet, "/v1/confidence?min=0.9&max=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["statements"], 3)

	rec = ts.do(http.MethodGet, "/v1/analytics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, decode[map[string]any](t, rec)["total"])

	rec = ts.do(http.MethodGet, "/v1/analytics/most-derived?limit=1", nil)
	assert.Len(t, decode[map[string]any](t, rec)["statements"], 1)

	rec = ts.do(http.MethodGet, "/v1/tags/frequency", nil)
	freq := decode[map[string][]map[string]any](t, rec)["tags"]
	require.NotEmpty(t, freq)
	assert.Equal(t, "planning", freq[0]["tag"])

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/search", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/confidence?min=0.9&max=0.1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/v1/tags?tag=x&mode=some", nil).Code)
}

func TestTheoryGeneration(t *testing.T) {
	ts := newTestServer(t)
	f := ts.seed()
	ts.gen.GenerateTheoryResponse = &domain.TheoryDraft{
		Content:             "Meal prep saves time",
		SuggestedTags:       []string{"planning"},
		SuggestedConfidence: 1.4,
	}

	rec := ts.do(http.MethodPost, "/v1/theories/generate", map[string]any{
		"source_ids": []string{f.ax1.ID.String(), f.ax2.ID.String()},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, ts.app.Query.Summary().Total)

	rec = ts.do(http.MethodPost, "/v1/theories/generate", map[string]any{
		"source_ids": []string{f.ax1.ID.String(), f.ax2.ID.String()},
		"add":        true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[struct {
		Result struct {
			Statement domain.Statement `json:"statement"`
		} `json:"result"`
	}](t, rec)
	assert.Equal(t, domain.KindTheory, res.Result.Statement.Kind)
	require.NotNil(t, res.Result.Statement.Confidence)
	assert.Equal(t, 1.0, *res.Result.Statement.Confidence)
	assert.Equal(t, 5, ts.app.Query.Summary().Total)

	rec = ts.do(http.MethodPost, "/v1/theories/generate", map[string]any{"source_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/theories/generate", map[string]any{
		"source_ids": []string{"6f1d2c3e-0000-4000-8000-000000000000"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.gen.GenerateTheoryError = assert.AnError
	rec = ts.do(http.MethodPost, "/v1/theories/generate", map[string]any{
		"source_ids": []string{f.ax1.ID.String()},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTheoryGeneratorMissing(t *testing.T) {
	cfg := &config.Config{RateLimitRPS: 100, RateLimitBurst: 100}
	app := NewApp(cfg, graph.New(), store.NewMemoryStore(), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/theories/generate",
		bytes.NewBufferString(`{"source_ids":["6f1d2c3e-0000-4000-8000-000000000000"]}`))
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.APIKey = "s3cret" })

	req := httptest.NewRequest(http.MethodGet, "/v1/statements", nil)
	rec := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/v1/statements", nil).Code)

	// Health stays open.
	rec = httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
