package middleware

import (
	"net/http"
	"slices"
	"strings"

	"retailpos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// devSecret is only used when JWT_SECRET is unset outside release mode
const devSecret = "default_super_secret_key"

// JWTSecret returns the configured secret, falling back to a development
// value unless gin runs in release mode.
func JWTSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	if gin.Mode() == gin.ReleaseMode {
		log.Fatal().Msg("JWT_SECRET is required in release mode")
	}
	log.Warn().Msg("JWT_SECRET not set, using development secret")
	return []byte(devSecret)
}

// RequireAuth validates the bearer token and stores the subject as the acting
// user. With roles given, the token's role claim must be one of them.
func RequireAuth(secret []byte, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		sub, _ := claims.GetSubject()
		role, _ := claims["role"].(string)
		if len(roles) > 0 && !slices.Contains(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Set(ContextUserID, sub)
		c.Set(ContextUserRole, role)
		c.Next()
	}
}

// UserID returns the acting user's id, or nil when the subject is not a uuid
// (service accounts, tests).
func UserID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetString(ContextUserID))
	if err != nil {
		return nil
	}
	return &id
}
