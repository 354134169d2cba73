package driving

import (
	"context"

	"github.com/custodia-labs/passage-highlights/internal/annotate"
	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/markup"
)

// AnnotationService manages the passages and annotation spans of a session
type AnnotationService interface {
	// Bind maps a consumer to a passage, loads the passage and makes it the
	// active document of the session
	Bind(ctx context.Context, sessionID string, req domain.BindRequest) (*domain.DocumentView, error)

	// Resolve returns the passage bound to a consumer
	Resolve(ctx context.Context, sessionID string, key domain.ConsumerKey) (*domain.DocumentView, error)

	// Load registers a passage. Loading a known ID is a no-op.
	Load(ctx context.Context, sessionID, documentID, raw string) error

	// Document returns the current state of a passage
	Document(ctx context.Context, sessionID, documentID string) (*domain.DocumentView, error)

	// Annotated returns the annotated markup, or "" for unknown IDs
	Annotated(ctx context.Context, sessionID, documentID string) (string, error)

	// Original returns the markup as loaded, or "" for unknown IDs
	Original(ctx context.Context, sessionID, documentID string) (string, error)

	// Spans lists the annotation spans of a passage in document order
	Spans(ctx context.Context, sessionID, documentID string) ([]domain.SpanView, error)

	// ResolveSelection turns a host selection into a range over the current tree
	ResolveSelection(ctx context.Context, sessionID, documentID string, container markup.Path, sel annotate.Selection) (annotate.Range, error)

	// CreateAnnotation wraps a previously resolved range
	CreateAnnotation(ctx context.Context, sessionID, documentID string, r annotate.Range, style markup.Style) (*domain.AnnotationResult, error)

	// Highlight resolves and wraps a selection in one step
	Highlight(ctx context.Context, sessionID, documentID string, req domain.HighlightRequest) (*domain.AnnotationResult, error)

	// RemoveAnnotation unwraps the span at path
	RemoveAnnotation(ctx context.Context, sessionID, documentID, path string) (*domain.AnnotationResult, error)

	// ToggleStrike flips strikethrough on the span at path
	ToggleStrike(ctx context.Context, sessionID, documentID, path string) (*domain.AnnotationResult, error)

	// Activate maps a host gesture on a span to remove or toggle
	Activate(ctx context.Context, sessionID, documentID string, req domain.ActivateRequest) (*domain.AnnotationResult, error)

	// Clear drops every span of a passage (in memory only)
	Clear(ctx context.Context, sessionID, documentID string) (*domain.DocumentView, error)
}
