package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blog-seo-optimizer/backend/middleware"
	"github.com/blog-seo-optimizer/backend/optimizer"
	"github.com/blog-seo-optimizer/backend/stats"
)

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger = zap.NewNop()
	seoOptimizer = optimizer.New("")
	rateLimiter = middleware.NewRateLimiter(1000, 1000)

	var err error
	storage, err = stats.NewStorage(t.TempDir())
	require.NoError(t, err)

	return setupRouter()
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestOptimizeEndpoint(t *testing.T) {
	r := setupTestServer(t)

	w := postJSON(r, "/api/optimize",
		`{"html_code": "<h1>Test</h1><p>Short content about testing.</p>", "focus_keyword": "testing", "seo_score": 65}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    optimizer.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, 65, resp.Data.SEOScoreBefore)
	assert.Greater(t, resp.Data.SEOScoreAfter, 65)
	assert.Contains(t, strings.ToLower(resp.Data.OptimizedHTMLWordPress), "<title>")
	assert.NotEmpty(t, resp.Data.Optimizations)
}

func TestOptimizeValidation(t *testing.T) {
	r := setupTestServer(t)

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"missing html_code",
			`{"focus_keyword": "testing", "seo_score": 65}`,
			"Missing required field: html_code",
		},
		{
			"empty html_code",
			`{"html_code": "  ", "focus_keyword": "testing", "seo_score": 65}`,
			"Missing required field: html_code",
		},
		{
			"missing focus_keyword",
			`{"html_code": "<p>hi</p>", "seo_score": 65}`,
			"Missing required field: focus_keyword",
		},
		{
			"missing seo_score",
			`{"html_code": "<p>hi</p>", "focus_keyword": "testing"}`,
			"Missing required field: seo_score",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/api/optimize", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tc.wantErr, resp.Error)
		})
	}
}

func TestOptimizeZeroScoreAccepted(t *testing.T) {
	r := setupTestServer(t)

	// an explicit 0 is a valid prior score, not a missing field
	w := postJSON(r, "/api/optimize",
		`{"html_code": "<p>Notes about gardening.</p>", "focus_keyword": "gardening", "seo_score": 0}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptimizeInvalidBody(t *testing.T) {
	r := setupTestServer(t)

	w := postJSON(r, "/api/optimize", `{"html_code": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestHealthEndpoint(t *testing.T) {
	r := setupTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), serviceName)
}

func TestFeaturesEndpoint(t *testing.T) {
	r := setupTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/features", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Features []map[string]string `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Features, 6)
}

func TestStatisticsEndpoint(t *testing.T) {
	r := setupTestServer(t)

	postJSON(r, "/api/optimize",
		`{"html_code": "<p>Some text about chess.</p>", "focus_keyword": "chess", "seo_score": 10}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Optimizations int `json:"optimizations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Optimizations)
}

func TestRequestIDHeader(t *testing.T) {
	r := setupTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(middleware.HeaderRequestID, "client-supplied-id")
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-supplied-id", w.Header().Get(middleware.HeaderRequestID))
}

func TestCORSPreflight(t *testing.T) {
	r := setupTestServer(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/optimize", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
