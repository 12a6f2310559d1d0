package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/metrics"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func newEngine() *ginext.Engine {
	engine := ginext.New("")
	engine.Use(ErrorHandlerMiddleware(), RequestIDMiddleware(), LoggerMiddleware(), CORSMiddleware())
	engine.GET("/id", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"id": c.GetString(RequestIDKey)})
	})
	engine.GET("/panic", func(c *ginext.Context) {
		panic("boom")
	})
	return engine
}

func TestRequestIDMiddleware(t *testing.T) {
	engine := newEngine()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, rec.Body.String(), generated)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "abc")
	engine.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestErrorHandlerMiddleware_RecoversPanic(t *testing.T) {
	rec := httptest.NewRecorder()
	newEngine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	rec := httptest.NewRecorder()
	newEngine().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/id", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerMiddleware_RouteLabels(t *testing.T) {
	engine := newEngine()
	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	matched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/id", "200")
	unmatchedBefore := testutil.ToFloat64(unmatched)
	matchedBefore := testutil.ToFloat64(matched)
	seriesBefore := testutil.CollectAndCount(metrics.HTTPRequestsTotal)

	for _, path := range []string{"/artifact/abc", "/wp-login.php", "/.env"} {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, unmatchedBefore+3, testutil.ToFloat64(unmatched))
	assert.Equal(t, matchedBefore+1, testutil.ToFloat64(matched))
	assert.Equal(t, seriesBefore, testutil.CollectAndCount(metrics.HTTPRequestsTotal))
}
