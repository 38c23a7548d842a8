package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/invstream/errors"
)

// ClaimsKey is the Gin context key holding the claims returned by the
// validator.
const ClaimsKey = "auth.claims"

// Auth returns a Gin middleware that requires "Authorization: Bearer <token>"
// and stores the validated claims under ClaimsKey. Failures are answered with
// 401 in the JSON error envelope.
func Auth[C any](validate func(token string) (C, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, apperrors.Unauthorized("bearer token required"))
			return
		}
		claims, err := validate(strings.TrimSpace(token))
		if err != nil {
			abort(c, apperrors.InvalidToken().WithCause(err))
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims stored by Auth.
func Claims[C any](c *gin.Context) (C, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		var zero C
		return zero, false
	}
	claims, ok := v.(C)
	return claims, ok
}
