package httpx

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/auth"
)

const claimsKey = "claims"

// Auth rejects requests without a valid bearer token.
func Auth(jwt *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			WriteError(c, apperr.New(apperr.KindUnauthenticated, "missing bearer token"))
			return
		}
		claims, err := jwt.Validate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			WriteError(c, apperr.Wrap(apperr.KindUnauthenticated, err, err.Error()))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			WriteError(c, apperr.New(apperr.KindUnauthenticated, "missing bearer token"))
			return
		}
		for _, r := range roles {
			if claims.HasRole(r) {
				c.Next()
				return
			}
		}
		forbidden(c)
	}
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
