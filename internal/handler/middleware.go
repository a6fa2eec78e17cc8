package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/mini-drive/backend/internal/model"
	"github.com/mini-drive/backend/internal/service"
)

const (
	authUserKey  = "auth_user"
	requestIDKey = "X-Request-ID"
)

// AuthMiddleware is the gate in front of every protected route: it extracts
// the bearer token, verifies it, and stores the principal in the request
// context. Public routes simply never pass through it.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Error:   model.KindUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		user, err := auth.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Error:   model.KindUnauthorized,
				Message: err.Error(),
			})
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

// RequireRole rejects authenticated principals lacking the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetAuthUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Error:   model.KindUnauthorized,
				Message: "unauthorized",
			})
			return
		}
		if !user.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{
				Error:   model.KindForbidden,
				Message: "forbidden",
			})
			return
		}
		c.Next()
	}
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(requestIDKey)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDKey, rid)
		c.Set(requestIDKey, rid)
		c.Next()
	}
}

// MaxInFlight bounds concurrently handled requests so a slow database or
// disk cannot pile up unbounded goroutines.
func MaxInFlight(limit int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(limit)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, model.ErrorResponse{
				Error:   model.KindUnavailable,
				Message: "server busy",
			})
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

// RateLimit applies a process-wide token bucket.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:   model.KindRateLimited,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}

// MaxBodyBytes caps the request body; oversize reads fail inside the
// handler with *http.MaxBytesError, translated to 413 there.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
