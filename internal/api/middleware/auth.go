package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/melody-api/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	bearerPrefix = "Bearer"

	// ContextUserID is the gin context key holding the caller's id
	ContextUserID = "user_id"
	// ContextUserEmail is set by the gateway and jwt modes when known
	ContextUserEmail = "user_email"

	anonymousUser = "anonymous"
)

// Claims are the JWT claims accepted in jwt mode. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Auth returns the middleware for cfg.AuthMode
func Auth(cfg *config.Config) gin.HandlerFunc {
	switch cfg.AuthMode {
	case config.AuthModeGateway:
		return GatewayAuth()
	case config.AuthModeJWT:
		return JWTAuth(cfg.JWTSecret)
	default:
		return NoAuth()
	}
}

// NoAuth is a pass-through middleware for AUTH_MODE=none
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextUserID, anonymousUser)
		c.Next()
	}
}

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email).
// This should ONLY be used behind a gateway that strips these headers from
// client requests.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserEmail, c.GetHeader("X-User-Email"))
		c.Next()
	}
}

// JWTAuth validates HS256 bearer tokens signed with secret
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == bearerPrefix {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated user id. Anonymous callers get "".
func GetUserID(c *gin.Context) string {
	userID := c.GetString(ContextUserID)
	if userID == anonymousUser {
		return ""
	}
	return userID
}
