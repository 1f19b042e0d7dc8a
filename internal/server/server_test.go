package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinboard/pkg/cache"
	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/observability"
	"github.com/matzehuels/kinboard/pkg/store/memory"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	svc := family.NewService(memory.New(family.Seed()), nil)
	s := New(svc, Options{Gatherer: prometheus.NewRegistry()})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetTree(t *testing.T) {
	_, ts := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/api/tree", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := decodeBody[family.Snapshot](t, resp)
	assert.Len(t, snap.Members, 2)
	assert.Len(t, snap.Connections, 1)
}

func TestMemberLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/members", family.Member{Name: "Mary Robinson", Role: "Mother", Gender: family.Female, X: 100, Y: 450})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[family.Member](t, resp)
	require.NotEmpty(t, created.ID)

	resp = do(t, http.MethodGet, ts.URL+"/api/members/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mary Robinson", decodeBody[family.Member](t, resp).Name)

	created.Location = "Boston, USA"
	resp = do(t, http.MethodPut, ts.URL+"/api/members/"+created.ID, created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Boston, USA", decodeBody[family.Member](t, resp).Location)

	resp = do(t, http.MethodDelete, ts.URL+"/api/members/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/members/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateMemberValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/members", family.Member{Role: "Uncle"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)
	assert.Equal(t, errors.ErrCodeInvalidInput, body.Code)
	assert.Contains(t, body.Error, "Name is required")

	resp = do(t, http.MethodPost, ts.URL+"/api/members", map[string]any{"name": "X", "shoeSize": 44})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMemberCascades(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodDelete, ts.URL+"/api/members/1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/connections", nil)
	conns := decodeBody[[]family.Connection](t, resp)
	assert.Empty(t, conns)
}

func TestRelation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/members/1/relation", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[relationView](t, resp)
	assert.True(t, view.Found)
	assert.Equal(t, "Son", view.Relation)
	assert.Equal(t, "2", view.SelfID)

	resp = do(t, http.MethodGet, ts.URL+"/api/members/1/relation?zh=true", nil)
	assert.Equal(t, "儿子", decodeBody[relationView](t, resp).Relation)

	resp = do(t, http.MethodGet, ts.URL+"/api/members/2/relation", nil)
	assert.False(t, decodeBody[relationView](t, resp).Found, "self has no relation to itself")
}

func TestFamily(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/members/1/family", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	relatives := decodeBody[[]family.Relative](t, resp)
	require.Len(t, relatives, 1)
	assert.Equal(t, "2", relatives[0].Member.ID)
	assert.Equal(t, "Son", relatives[0].Relation)
}

func TestConnectionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/connections", family.Connection{SourceID: "2", TargetID: "1", Label: "Father"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[family.Connection](t, resp)
	assert.Equal(t, "bottom", string(created.SourceHandle))
	assert.Equal(t, "top", string(created.TargetHandle))

	created.LineStyle = "dashed"
	resp = do(t, http.MethodPut, ts.URL+"/api/connections/"+created.ID, created)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/api/connections/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/connections", nil)
	assert.Len(t, decodeBody[[]family.Connection](t, resp), 1)
}

func TestCreateConnectionUnknownEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/connections", family.Connection{SourceID: "1", TargetID: "404"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[errorBody](t, resp).Error, "404")
}

func TestRender(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/render.svg?title=Robinsons", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(b)), "<svg"), "body starts with %q", string(b[:min(len(b), 40)]))
	assert.Contains(t, string(b), "Arthur Robinson")

	resp = do(t, http.MethodGet, ts.URL+"/api/render.dot", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"1" -> "2"`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Install()
	t.Cleanup(observability.Reset)

	svc := family.NewService(memory.New(family.Seed()), nil)
	ts := httptest.NewServer(New(svc, Options{Gatherer: reg}).Handler())
	t.Cleanup(ts.Close)

	do(t, http.MethodGet, ts.URL+"/api/members/1", nil)
	resp := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(b), `kinboard_http_request_duration_seconds_count{code="200",method="GET",route="/api/members/{id}`)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeMemberNotFound, http.StatusNotFound},
		{errors.ErrCodeInvalidInput, http.StatusBadRequest},
		{errors.ErrCodeConflict, http.StatusConflict},
		{errors.ErrCodeUnavailable, http.StatusServiceUnavailable},
		{errors.ErrCodeStore, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.code), tt.code)
	}
}

func TestRenderSVGIsCached(t *testing.T) {
	s, ts := newTestServer(t)
	mc, ok := s.opts.Cache.(*cache.MemoryCache)
	require.True(t, ok)

	do(t, http.MethodGet, ts.URL+"/api/render.svg", nil)
	do(t, http.MethodGet, ts.URL+"/api/render.svg", nil)
	assert.Equal(t, 1, mc.Len())

	do(t, http.MethodGet, ts.URL+"/api/render.svg?zh=true", nil)
	assert.Equal(t, 2, mc.Len())
}
