package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/service"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

const bearerPrefix = "Bearer "

// JWT protects routes by requiring a valid bearer token. A missing header and
// a malformed header are reported differently from a rejected token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrMissingAuthHeader, ""))
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			response.Abort(c, appErrors.Clone(appErrors.ErrInvalidAuthFormat, ""))
			return
		}

		claims, err := authService.ValidateToken(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
