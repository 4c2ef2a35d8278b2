package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionContextKey = "session"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// RequireUserType checks the bearer token, loads its session and rejects
// sessions of any other user type.
func RequireUserType(auth Authenticator, allowed ...models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please log in"})
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			msg := err.Error()
			if !errors.Is(err, service.ErrUnauthorized) {
				status = http.StatusInternalServerError
				msg = "internal server error"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		for _, t := range allowed {
			if session.UserType == t {
				c.Set(sessionContextKey, session)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

func sessionFrom(c *gin.Context) *models.Session {
	return c.MustGet(sessionContextKey).(*models.Session)
}

// fail writes err as {"error": ...} with the status its kind maps to.
func (g *Gateway) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	default:
		g.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (g *Gateway) bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}
