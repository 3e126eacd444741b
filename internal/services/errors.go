// Package services implements the retrieval-augmented answer pipeline.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
package services

import "errors"

var (
	// ErrEmptyQuestion is returned when the question is empty after trimming.
	ErrEmptyQuestion = errors.New("question is empty")
)
