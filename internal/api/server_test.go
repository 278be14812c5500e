package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/edgar-entities/internal/classifier"
	"github.com/ajitpratap0/edgar-entities/internal/metrics"
	"github.com/ajitpratap0/edgar-entities/internal/models"
	"github.com/ajitpratap0/edgar-entities/internal/regime"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, token string) (*Server, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := store.NewMemoryStore(4, 2, m, testLogger())
	d := classifier.NewDispatcher(classifier.NewTextClassifier(nil, nil, testLogger()), regime.NewResolver(nil))

	for _, sg := range []models.Sighting{
		{Identifier: "1", Name: "Apple Inc", FormType: "10-K", Filed: "2024-01-02"},
		{Identifier: "2", Name: "WIPRO LTD", FormType: "20-F", Filed: "2024-01-02"},
		{Identifier: "3", Name: "Mrs. Mary Jones", FormType: "4", Filed: "2024-01-02"},
	} {
		require.NoError(t, st.Ingest(ctx, sg))
	}
	require.NoError(t, st.ClassifyAll(ctx, d))

	return NewServer(st, d, reg, testLogger(), token), st
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"records":3`)
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/v1/stats", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/v1/stats", "", "wrong").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/stats", "", "secret").Code)
}

func TestClassify(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	tests := []struct {
		body   string
		kind   models.EntityKind
		source string
		key    string
	}{
		{`{"name":"Apple Inc"}`, models.EntityKindCompany, classifier.SourceText, "company"},
		{`{"name":"Apple Inc","form_types":["20-F","N-MFP2"]}`, models.EntityKindRegime, classifier.SourceRegime, "is_fpi+is_mmf"},
		{`{"name":"Google"}`, models.EntityKindUnclassified, classifier.SourceText, "unclassified"},
		{`{"name":"Mrs. Mary Jones","form_types":["4"]}`, models.EntityKindPerson, classifier.SourceText, "person"},
	}
	for _, tt := range tests {
		rec := do(t, h, http.MethodPost, "/v1/classify", tt.body, "")
		require.Equal(t, http.StatusOK, rec.Code, tt.body)

		var resp classifyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, tt.kind, resp.Classification.Kind, tt.body)
		assert.Equal(t, tt.source, resp.Source, tt.body)
		assert.Equal(t, tt.key, resp.Key, tt.body)
	}
}

func TestClassify_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/classify", "{", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/classify", `{"name":"  "}`, "").Code)

	many := `{"name":"x","form_types":["` + strings.Repeat(`4","`, maxFormTypes) + `4"]}`
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/classify", many, "").Code)
}

func TestGetRecord(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/v1/records/2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "WIPRO LTD", got.OriginalName)
	require.NotNil(t, got.Classification)
	assert.Equal(t, []string{"is_fpi"}, got.Classification.Flags)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/records/999", "", "").Code)
}

func TestListRecords(t *testing.T) {
	s, _ := newTestServer(t, "")
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/v1/records?limit=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Records, 2)
	assert.Equal(t, "2", page.NextCursor)

	rec = do(t, h, http.MethodGet, "/v1/records?limit=2&cursor="+page.NextCursor, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = listResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Records, 1)
	assert.Equal(t, "3", page.Records[0].Identifier)
	assert.Empty(t, page.NextCursor)

	rec = do(t, h, http.MethodGet, "/v1/records?kind=person", "", "")
	page = listResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Records, 1)
	assert.Equal(t, "3", page.Records[0].Identifier)

	rec = do(t, h, http.MethodGet, "/v1/records?flag=is_mmf", "", "")
	assert.Contains(t, rec.Body.String(), `"records":[]`)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/records?kind=robot", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/records?limit=-1", "", "").Code)
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s.Handler(), http.MethodGet, "/v1/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.ClassificationStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Companies)
	assert.Equal(t, int64(1), stats.Persons)
	assert.Equal(t, int64(1), stats.ByFlags["is_fpi"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "secret")
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edgar_entities_sightings_ingested_total 3")
}
