package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"LIBRA-backend/internal/platform/apierr"
)

const (
	CtxUsernameKey = "username"
	CtxRoleKey     = "role"
)

// RequireAuth: Authorization: Bearer <token> か、無ければログイン時の cookie を検証して
// context に sub/role を詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, msg := tokenFrom(c)
		if tokenStr == "" {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, msg)
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || token == nil || !token.Valid {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid claims")
			return
		}
		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid sub")
			return
		}
		role, _ := claims["role"].(string)

		c.Set(CtxUsernameKey, sub)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

func tokenFrom(c *gin.Context) (string, string) {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "invalid Authorization header"
		}
		if t := strings.TrimSpace(parts[1]); t != "" {
			return t, ""
		}
		return "", "empty token"
	}
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v, ""
	}
	return "", "missing credentials"
}

// RequireRole: RequireAuth の後ろに置く
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		if role == "" {
			apierr.Abort(c, http.StatusForbidden, apierr.CodeForbidden, "missing role")
			return
		}
		if _, allowed := roleSet[role]; !allowed {
			apierr.Abort(c, http.StatusForbidden, apierr.CodeForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
