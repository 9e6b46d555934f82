package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the shape of every JSON answer. Code is only set on failures,
// so clients can branch without parsing Message.
type Envelope struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Envelope{Status: code < http.StatusBadRequest, Message: message, Data: data})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, Envelope{Message: err.Error(), Code: ErrorCode(code)})
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, code int, err error) {
	RespondError(c, code, err)
	c.Abort()
}

// ErrorCode names an error status for the envelope.
func ErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		if status >= http.StatusInternalServerError {
			return "server_error"
		}
		return "error"
	}
}
