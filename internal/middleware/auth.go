package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"farmmarket/internal/access"
	"farmmarket/internal/security"
)

const claimsKey = "access_claims"

// Authenticate verifies the bearer token and stores its claims on the
// context. It never touches the user store.
func Authenticate(verifier access.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		claims, err := access.Authenticate(header, verifier)
		if err != nil {
			msg := "invalid token"
			if strings.TrimSpace(header) == "" {
				msg = "missing token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Require runs guards against the authenticated claims. Guard messages
// reach the client so a pending farmer can tell why they were refused.
func Require(guards ...access.Guard) gin.HandlerFunc {
	guard := access.All(guards...)

	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		if err := guard.Check(claims); err != nil {
			status := http.StatusForbidden
			if errors.Is(err, access.ErrUnauthorized) {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": access.Message(err)})
			return
		}

		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) (security.Claims, bool) {
	val, exists := c.Get(claimsKey)
	if !exists {
		return security.Claims{}, false
	}
	claims, ok := val.(security.Claims)
	return claims, ok
}
