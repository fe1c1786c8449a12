package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/session"
)

const claimsKey = "seat_claims"

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// SeatMiddleware validates the bearer seat token and requires it to belong to the
// room named in the path. The claims are stored on the context.
func SeatMiddleware(issuer *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := issuer.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if code := c.Param("code"); code != "" && !strings.EqualFold(code, claims.RoomCode) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for another room"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// seatClaims returns the claims SeatMiddleware stored
func seatClaims(c *gin.Context) (session.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return session.Claims{}, false
	}
	claims, ok := v.(session.Claims)
	return claims, ok
}
