package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid (missing id, missing markup...)
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRange indicates a selection point does not address the document
	ErrInvalidRange = errors.New("invalid range")

	// ErrCollapsedSelection indicates a selection covering no text
	ErrCollapsedSelection = errors.New("collapsed selection")

	// ErrOutsideContainer indicates a selection leaving the passage container
	ErrOutsideContainer = errors.New("selection outside container")

	// ErrStaleRange indicates a range resolved against an older revision of the tree
	ErrStaleRange = errors.New("stale range")

	// ErrNotAnnotation indicates the addressed node is not an annotation span
	ErrNotAnnotation = errors.New("not an annotation span")

	// ErrMutationFailed indicates a tree mutation failed and was rolled back
	ErrMutationFailed = errors.New("mutation failed")

	// ErrFeatureDisabled indicates annotations are disabled for the active subject
	ErrFeatureDisabled = errors.New("annotations disabled for subject")

	// ErrAlreadyBound indicates a consumer is already bound to another document
	ErrAlreadyBound = errors.New("consumer already bound")

	// ErrStaleWrite indicates a durable write older than the stored record
	ErrStaleWrite = errors.New("stale write")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionLocked indicates the session is held by another instance
	ErrSessionLocked = errors.New("session held by another instance")

	// ErrTokenExpired indicates the session token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the session token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
