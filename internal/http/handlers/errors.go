// Package handlers defines HTTP-layer error codes used by the webhook API.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper in this package and give callers a stable, machine-readable taxonomy
// alongside the human-readable message.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeAnswerFailed = "answer_failed"
)
