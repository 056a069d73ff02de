package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/middleware"
	"github.com/aquago/aquago-api/internal/models"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// currentEmail returns the email of the authenticated caller.
func currentEmail(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Email == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	return claims.Email, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.KindValidation, appErrors.ErrValidation.Code, "invalid payload")
}
