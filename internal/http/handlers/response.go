// Package handlers provides the HTTP handler implementations for the webhook
// service.
//
// This file defines the standard response utilities used across the endpoints:
// a structured error envelope, consistent JSON serialization, and helpers for
// the common success/failure patterns. Webhook callers (the Telegram platform)
// mostly care about the status code, but keeping the envelope uniform makes
// manual testing and log correlation predictable.
//
// Example error response:
//
//	HTTP/1.1 500 Internal Server Error
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "answer_failed",
//	  "message": "failed to generate answer"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheraliozodov77/youth-telegram-bot/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// RequestID echoes the X-Request-ID header so server logs can be correlated
// with a failed delivery; Code is a stable machine-readable string (see
// errors.go); Message is safe for display.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware so that the failure is visible even though the webhook caller
// never surfaces response bodies to anyone.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return consistent
// error envelopes without depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response with the given status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
