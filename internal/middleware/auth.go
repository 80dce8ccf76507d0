package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/models"
)

const (
	// UserKey is the context key for the authenticated user.
	UserKey = "user"
	// AuthCookieName is read when no Authorization header is sent.
	AuthCookieName = "auth_token"
)

// Claims are the JWT claims issued to staff and owners. The subject is the
// user's UUID.
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies an HS256 bearer token and stores the user in the context.
// Requests without a valid token are rejected with 401.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := extractToken(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "auth.unauthorized")
			return
		}

		user, err := parseToken(raw, secret)
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected token", map[string]interface{}{
					"error": err.Error(),
					"path":  c.Request.URL.Path,
				})
			}
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "auth.unauthorized")
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// RequireRole rejects authenticated users whose role is not listed with 403.
// It must run after Auth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "auth.unauthorized")
			return
		}
		if !slices.Contains(roles, user.Role) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "auth.forbidden")
			return
		}
		c.Next()
	}
}

// GetUser retrieves the authenticated user from the Gin context.
func GetUser(c *gin.Context) (*models.User, bool) {
	if v, exists := c.Get(UserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user, true
		}
	}
	return nil, false
}

// SignToken issues a token for user valid for ttl.
func SignToken(secret []byte, user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func extractToken(c *gin.Context) (string, error) {
	if h := c.GetHeader("Authorization"); h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return "", errors.New("malformed Authorization header")
		}
		return strings.TrimPrefix(h, "Bearer "), nil
	}
	if cookie, err := c.Cookie(AuthCookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errors.New("missing token")
}

func parseToken(raw string, secret []byte) (*models.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("subject is not a user id")
	}
	switch claims.Role {
	case models.RoleOwner, models.RoleAdmin, models.RoleAgent, models.RoleExternalAgent:
	default:
		return nil, errors.New("unknown role")
	}

	return &models.User{ID: id, Name: claims.Name, Role: claims.Role}, nil
}
