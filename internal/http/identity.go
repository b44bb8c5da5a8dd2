package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "caller_identity"

// IdentityMiddleware valida tokens Bearer opcionales. Sin header la request
// sigue anonima; con header el token debe ser un HS256 valido con subject.
// Con secret vacio la verificacion queda deshabilitada.
func IdentityMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || len(key) == 0 {
			c.Next()
			return
		}
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(header[len("Bearer "):])
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims jwt.RegisteredClaims
		_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || strings.TrimSpace(claims.Subject) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(identityKey, claims.Subject)
		c.Next()
	}
}

// GetIdentity obtiene la identidad del caller desde el contexto, si el token
// fue presentado y validado.
func GetIdentity(c *gin.Context) (string, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return "", false
	}
	identity, ok := val.(string)
	return identity, ok
}
