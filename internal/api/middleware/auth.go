package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/verbamind/verbamind/pkg/utils"
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}

func parseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}

// AuthRequired rejects requests without a valid token.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.SendUnauthorized(c, "Bearer token required")
			c.Abort()
			return
		}
		claims, err := parseToken(token, secret)
		if err != nil {
			utils.SendUnauthorized(c, "Invalid token")
			c.Abort()
			return
		}
		c.Set("user_id", claims.Subject)
		c.Set("authenticated", true)
		c.Next()
	}
}

// OptionalAuth attaches identity when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Set("authenticated", false)
			c.Next()
			return
		}
		claims, err := parseToken(token, secret)
		if err != nil {
			c.Set("authenticated", false)
			c.Next()
			return
		}
		c.Set("user_id", claims.Subject)
		c.Set("authenticated", true)
		c.Next()
	}
}

// UserID returns the authenticated user id, empty for anonymous requests.
func UserID(c *gin.Context) string {
	if id, ok := c.Get("user_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
