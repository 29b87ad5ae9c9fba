package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/pkg/logging"
)

// envelope is the uniform response shape
type envelope struct {
	OK    bool           `json:"ok"`
	Data  interface{}    `json:"data,omitempty"`
	Error *envelopeError `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OK writes a success envelope
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{OK: true, Data: data})
}

// Created writes a success envelope with a 201 status
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{OK: true, Data: data})
}

// Fail writes an error envelope. Known application errors map to their
// code and status; anything else is logged and surfaces as an opaque
// 500 so internals never leak to clients.
func Fail(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		c.JSON(appErr.Status, envelope{OK: false, Error: &envelopeError{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	logging.GetLogger().Error("unhandled request error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, envelope{OK: false, Error: &envelopeError{
		Code:    "INTERNAL",
		Message: "Internal server error",
	}})
}

// clientIP returns the originating client address, honoring the first
// X-Forwarded-For hop set by the edge proxy
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return c.ClientIP()
}
