package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newProtected() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/maintenance", RequireAuth(testSecret), RequireRole(RoleAdmin))
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxUsernameKey)) })
	return r
}

func TestRequireAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	admin := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "adm", "role": "admin", "exp": exp})
	clerk := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "clerk", "role": "user", "exp": exp})
	expired := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "adm", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()})
	noExp := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "adm", "role": "admin"})
	otherKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "adm", "role": "admin", "exp": exp})
	hs512 := sign(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{"sub": "adm", "role": "admin", "exp": exp})

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{name: "bearer admin", header: "Bearer " + admin, status: http.StatusOK},
		{name: "cookie admin", cookie: admin, status: http.StatusOK},
		{name: "non admin", header: "Bearer " + clerk, status: http.StatusForbidden},
		{name: "missing", status: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "no exp", header: "Bearer " + noExp, status: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + otherKey, status: http.StatusUnauthorized},
		{name: "other alg", header: "Bearer " + hs512, status: http.StatusUnauthorized},
	}
	r := newProtected()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/maintenance/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
