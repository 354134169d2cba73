package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrInvalidRange", ErrInvalidRange, "invalid range"},
		{"ErrCollapsedSelection", ErrCollapsedSelection, "collapsed selection"},
		{"ErrOutsideContainer", ErrOutsideContainer, "selection outside container"},
		{"ErrStaleRange", ErrStaleRange, "stale range"},
		{"ErrNotAnnotation", ErrNotAnnotation, "not an annotation span"},
		{"ErrMutationFailed", ErrMutationFailed, "mutation failed"},
		{"ErrFeatureDisabled", ErrFeatureDisabled, "annotations disabled for subject"},
		{"ErrAlreadyBound", ErrAlreadyBound, "consumer already bound"},
		{"ErrStaleWrite", ErrStaleWrite, "stale write"},
		{"ErrSessionNotFound", ErrSessionNotFound, "session not found"},
		{"ErrSessionLocked", ErrSessionLocked, "session held by another instance"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrInvalidRange,
		ErrCollapsedSelection,
		ErrOutsideContainer,
		ErrStaleRange,
		ErrNotAnnotation,
		ErrMutationFailed,
		ErrFeatureDisabled,
		ErrAlreadyBound,
		ErrStaleWrite,
		ErrSessionNotFound,
		ErrSessionLocked,
		ErrTokenExpired,
		ErrTokenInvalid,
	}

	for i, a := range allErrors {
		for j, b := range allErrors {
			if i != j && errors.Is(a, b) {
				t.Errorf("expected %v and %v to be distinct", a, b)
			}
		}
	}
}

func TestErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("resolve selection: %w", ErrCollapsedSelection)
	if !errors.Is(wrapped, ErrCollapsedSelection) {
		t.Error("expected wrapped error to match sentinel")
	}
}
