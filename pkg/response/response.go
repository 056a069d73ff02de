package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/aquago/aquago-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Message string                 `json:"message,omitempty"`
	Token   string                 `json:"token,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Message sends a message-only body, optionally with data.
func Message(c *gin.Context, status int, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Message: message, Data: data})
}

// Token responds with a freshly issued credential.
func Token(c *gin.Context, status int, message, token string) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Message: message, Token: token})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	Message(c, http.StatusCreated, message, data)
}

// Error writes {"message": ...} with the status of the error kind. The
// original error stays on the gin context for the request logger.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status(), Envelope{Message: appErr.Message})
}

// Abort writes the error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
