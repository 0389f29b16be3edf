package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	files := fstest.MapFS{
		"index.html":    {Data: []byte("<html>app</html>")},
		"static/app.js": {Data: []byte("console.log(1)")},
	}
	r.NoRoute(spaHandler(http.FS(files)))
	return r
}

func get(r http.Handler, p string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
	return w
}

func TestSPAFallback(t *testing.T) {
	r := newEngine()

	w := get(r, "/static/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")

	w = get(r, "/reports/overdue")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>app</html>", w.Body.String())
	assert.Empty(t, w.Header().Get("Cache-Control"))

	w = get(r, "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmbeddedIndex(t *testing.T) {
	h, err := SPAFallback()
	require.NoError(t, err)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.NoRoute(h)

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Library Management System")
}
