package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/annotate"
	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driving"
	"github.com/custodia-labs/passage-highlights/internal/markup"
	"github.com/custodia-labs/passage-highlights/internal/runtime"
)

// Ensure annotationService implements AnnotationService
var _ driving.AnnotationService = (*annotationService)(nil)

// annotationService implements the AnnotationService interface.
// Every read and mutation happens under the workspace lock; durable I/O never does.
type annotationService struct {
	sessions *runtime.Sessions
	bridge   *PersistenceBridge
	logger   *slog.Logger
	now      func() time.Time
}

// AnnotationServiceConfig holds dependencies for the AnnotationService.
type AnnotationServiceConfig struct {
	Sessions *runtime.Sessions
	Bridge   *PersistenceBridge
	Logger   *slog.Logger
	Now      func() time.Time
}

// NewAnnotationService creates a new AnnotationService
func NewAnnotationService(cfg AnnotationServiceConfig) driving.AnnotationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &annotationService{
		sessions: cfg.Sessions,
		bridge:   cfg.Bridge,
		logger:   logger,
		now:      now,
	}
}

// Bind maps a consumer to a passage and loads it
func (s *annotationService) Bind(ctx context.Context, sessionID string, req domain.BindRequest) (*domain.DocumentView, error) {
	if req.DocumentID == "" || req.Consumer.Subject == "" {
		return nil, domain.ErrInvalidInput
	}
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	err = ws.Registry.CheckBind(req.Consumer, req.DocumentID)
	ws.Unlock()
	if err != nil {
		s.logger.Warn("consumer rebind refused", "session_id", sessionID, "consumer", req.Consumer.String(), "error", err)
		return nil, err
	}

	if err := s.Load(ctx, sessionID, req.DocumentID, req.Markup); err != nil {
		return nil, err
	}

	ws.Lock()
	defer ws.Unlock()

	if err := ws.Registry.Bind(req.Consumer, req.DocumentID); err != nil {
		s.logger.Warn("consumer rebind refused", "session_id", sessionID, "consumer", req.Consumer.String(), "error", err)
		return nil, err
	}
	ws.SetSubject(req.Consumer.Subject)
	ws.SetActiveDocument(req.DocumentID)
	ws.Touch(s.now(), true)

	return s.view(ws, req.DocumentID)
}

// Resolve returns the passage bound to key
func (s *annotationService) Resolve(ctx context.Context, sessionID string, key domain.ConsumerKey) (*domain.DocumentView, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()

	id, ok := ws.Registry.Resolve(key)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.view(ws, id)
}

// Load registers a passage: the markup becomes both the original and the
// annotated tree, then any persisted record is overlaid. Known IDs are left
// untouched, so loading is idempotent.
func (s *annotationService) Load(ctx context.Context, sessionID, documentID, raw string) error {
	if documentID == "" || strings.TrimSpace(raw) == "" {
		s.logger.Warn("load rejected: missing document id or markup", "session_id", sessionID, "document_id", documentID)
		return domain.ErrInvalidInput
	}
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}

	ws.Lock()
	known := ws.Store.Get(documentID) != nil
	ws.Unlock()
	if known {
		return nil
	}

	original, err := markup.Parse(raw)
	if err != nil {
		s.logger.Warn("load rejected: unparseable markup", "document_id", documentID, "error", err)
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	doc, err := domain.NewDocumentState(documentID, original, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	// Durable read outside the lock; a failing backend degrades to in-memory only.
	if s.bridge != nil {
		rec, err := s.bridge.LoadOne(ctx, documentID)
		if err != nil {
			s.logger.Error("failed to load persisted record", "document_id", documentID, "error", err)
		} else if rec != nil {
			if err := doc.Overlay(rec); err != nil {
				s.logger.Error("ignoring corrupt persisted record", "document_id", documentID, "error", err)
			}
		}
	}

	ws.Lock()
	defer ws.Unlock()
	if ws.Store.Get(documentID) != nil {
		return nil
	}
	ws.Store.Upsert(documentID, doc)
	ws.Touch(s.now(), true)
	s.logger.Debug("document loaded", "session_id", sessionID, "document_id", documentID, "revision", doc.Revision)
	return nil
}

// Document returns the current state of a passage
func (s *annotationService) Document(ctx context.Context, sessionID, documentID string) (*domain.DocumentView, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()
	return s.view(ws, documentID)
}

// Annotated returns the annotated markup, "" if unknown
func (s *annotationService) Annotated(ctx context.Context, sessionID, documentID string) (string, error) {
	return s.render(sessionID, documentID, func(d *domain.DocumentState) *markup.Fragment { return d.Annotated })
}

// Original returns the markup as loaded, "" if unknown
func (s *annotationService) Original(ctx context.Context, sessionID, documentID string) (string, error) {
	return s.render(sessionID, documentID, func(d *domain.DocumentState) *markup.Fragment { return d.Original })
}

func (s *annotationService) render(sessionID, documentID string, pick func(*domain.DocumentState) *markup.Fragment) (string, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	ws.Lock()
	defer ws.Unlock()

	doc := ws.Store.Get(documentID)
	if doc == nil {
		return "", nil
	}
	return pick(doc).Render()
}

// Spans lists the annotation spans of a passage
func (s *annotationService) Spans(ctx context.Context, sessionID, documentID string) ([]domain.SpanView, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()

	doc := ws.Store.Get(documentID)
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return spanViews(doc.Annotated.Spans()), nil
}

// ResolveSelection resolves a host selection against the current tree.
// The range is bound to the current revision.
func (s *annotationService) ResolveSelection(ctx context.Context, sessionID, documentID string, container markup.Path, sel annotate.Selection) (annotate.Range, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return annotate.Range{}, err
	}
	ws.Lock()
	defer ws.Unlock()

	if !s.sessions.Config().AnnotationsEnabled(ws.Subject()) {
		return annotate.Range{}, domain.ErrFeatureDisabled
	}
	doc := ws.Store.Get(documentID)
	if doc == nil {
		return annotate.Range{}, domain.ErrNotFound
	}
	r, err := annotate.Resolve(doc.Annotated, doc.Revision, container, sel)
	if err != nil {
		s.logger.Warn("selection rejected", "document_id", documentID, "error", err)
		return annotate.Range{}, err
	}
	return r, nil
}

// CreateAnnotation wraps r in a new span
func (s *annotationService) CreateAnnotation(ctx context.Context, sessionID, documentID string, r annotate.Range, style markup.Style) (*domain.AnnotationResult, error) {
	return s.mutate(sessionID, documentID, "create", func(doc *domain.DocumentState) (*markup.Fragment, []markup.Path, error) {
		if !r.ValidFor(doc.Revision) {
			return nil, nil, domain.ErrStaleRange
		}
		return annotate.Wrap(doc.Annotated, r, style)
	})
}

// Highlight resolves a selection and wraps it in one step
func (s *annotationService) Highlight(ctx context.Context, sessionID, documentID string, req domain.HighlightRequest) (*domain.AnnotationResult, error) {
	style, err := markup.ParseStyle(req.Style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if (req.Offsets == nil) == (req.Selection == nil) {
		return nil, fmt.Errorf("%w: exactly one of offsets and selection is required", domain.ErrInvalidInput)
	}

	return s.mutate(sessionID, documentID, "create", func(doc *domain.DocumentState) (*markup.Fragment, []markup.Path, error) {
		var (
			r   annotate.Range
			err error
		)
		if req.Offsets != nil {
			r, err = annotate.ResolveOffsets(doc.Annotated, doc.Revision, req.Offsets.Start, req.Offsets.End)
		} else {
			r, err = annotate.Resolve(doc.Annotated, doc.Revision, markup.Path(req.Selection.Container), annotate.Selection{
				Anchor: annotate.Point{Path: markup.Path(req.Selection.Anchor.Path), Offset: req.Selection.Anchor.Offset},
				Focus:  annotate.Point{Path: markup.Path(req.Selection.Focus.Path), Offset: req.Selection.Focus.Offset},
			})
		}
		if err != nil {
			return nil, nil, err
		}
		return annotate.Wrap(doc.Annotated, r, style)
	})
}

// RemoveAnnotation unwraps the span at path
func (s *annotationService) RemoveAnnotation(ctx context.Context, sessionID, documentID, path string) (*domain.AnnotationResult, error) {
	p, err := markup.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return s.mutate(sessionID, documentID, "remove", func(doc *domain.DocumentState) (*markup.Fragment, []markup.Path, error) {
		out, err := annotate.Unwrap(doc.Annotated, p)
		return out, nil, err
	})
}

// ToggleStrike flips strikethrough on the span at path
func (s *annotationService) ToggleStrike(ctx context.Context, sessionID, documentID, path string) (*domain.AnnotationResult, error) {
	p, err := markup.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return s.mutate(sessionID, documentID, "strike", func(doc *domain.DocumentState) (*markup.Fragment, []markup.Path, error) {
		out, err := annotate.ToggleStrike(doc.Annotated, p)
		if err != nil {
			return nil, nil, err
		}
		return out, []markup.Path{p}, nil
	})
}

// Activate maps a gesture on a span to its intent
func (s *annotationService) Activate(ctx context.Context, sessionID, documentID string, req domain.ActivateRequest) (*domain.AnnotationResult, error) {
	if !req.Gesture.IsValid() {
		return nil, fmt.Errorf("%w: unknown gesture %q", domain.ErrInvalidInput, req.Gesture)
	}
	if req.Gesture == domain.GestureDoubleActivate {
		return s.RemoveAnnotation(ctx, sessionID, documentID, req.Path)
	}
	return s.ToggleStrike(ctx, sessionID, documentID, req.Path)
}

// Clear resets the annotated tree of a passage to its original
func (s *annotationService) Clear(ctx context.Context, sessionID, documentID string) (*domain.DocumentView, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()

	doc := ws.Store.Get(documentID)
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	now := s.now()
	if err := doc.Apply(doc.Original.Clone(), now); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	ws.Touch(now, true)
	annotationOpsTotal.WithLabelValues("clear", "ok").Inc()
	return s.view(ws, documentID)
}

type mutation func(doc *domain.DocumentState) (*markup.Fragment, []markup.Path, error)

// mutate runs fn against a document and swaps in its result. On any error,
// panics included, the store keeps the last-known-good tree.
func (s *annotationService) mutate(sessionID, documentID, op string, fn mutation) (*domain.AnnotationResult, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()

	if !s.sessions.Config().AnnotationsEnabled(ws.Subject()) {
		annotationOpsTotal.WithLabelValues(op, "disabled").Inc()
		return nil, domain.ErrFeatureDisabled
	}
	doc := ws.Store.Get(documentID)
	if doc == nil {
		annotationOpsTotal.WithLabelValues(op, "not_found").Inc()
		return nil, domain.ErrNotFound
	}

	annotated, paths, err := safely(doc, fn)
	if err != nil {
		annotationOpsTotal.WithLabelValues(op, "rejected").Inc()
		s.logger.Warn("annotation rejected",
			"operation", op,
			"session_id", sessionID,
			"document_id", documentID,
			"error", err,
		)
		return nil, err
	}

	now := s.now()
	if err := doc.Apply(annotated, now); err != nil {
		annotationOpsTotal.WithLabelValues(op, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	ws.SetActiveDocument(documentID)
	ws.Touch(now, true)
	annotationOpsTotal.WithLabelValues(op, "ok").Inc()

	view, err := s.view(ws, documentID)
	if err != nil {
		return nil, err
	}
	res := &domain.AnnotationResult{Document: view}
	for _, p := range paths {
		n, err := annotated.NodeAt(p)
		if err != nil {
			continue
		}
		res.Spans = append(res.Spans, domain.SpanView{Path: p.String(), Text: n.TextContent(), Style: n.Style.String()})
	}
	return res, nil
}

func safely(doc *domain.DocumentState, fn mutation) (out *markup.Fragment, paths []markup.Path, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, paths = nil, nil
			err = fmt.Errorf("%w: %v", domain.ErrMutationFailed, r)
		}
	}()
	out, paths, err = fn(doc)
	if err == nil && out == nil {
		err = domain.ErrMutationFailed
	}
	return out, paths, err
}

// view builds the read model. Expects the workspace lock to be held.
func (s *annotationService) view(ws *domain.Workspace, documentID string) (*domain.DocumentView, error) {
	doc := ws.Store.Get(documentID)
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	v, err := doc.View()
	if err != nil {
		return nil, err
	}
	v.Consumers = ws.Registry.Consumers(documentID)
	return v, nil
}

func spanViews(spans []markup.Span) []domain.SpanView {
	out := make([]domain.SpanView, 0, len(spans))
	for _, sp := range spans {
		out = append(out, domain.SpanView{Path: sp.Path.String(), Text: sp.Text, Style: sp.Style.String()})
	}
	return out
}
