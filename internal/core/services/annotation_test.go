package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/passage-highlights/internal/annotate"
	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/markup"
)

const bravoHighlighted = "<p>Alpha " + markOpen + "bravo" + markClose + ".</p><p>Charlie delta.</p>"

func TestAnnotationService_BindLoadsPassage(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")

	view := f.bind(t, "s1", 5, passageID, twoParagraphs)

	assert.Equal(t, passageID, view.ID)
	assert.Equal(t, twoParagraphs, view.Annotated)
	assert.Equal(t, []string{"<p>Alpha bravo.</p>", "<p>Charlie delta.</p>"}, view.Paragraphs)
	assert.Equal(t, []string{"Reading Comprehension-0-5"}, view.Consumers)

	info, err := NewSessionService(SessionServiceConfig{Sessions: f.sessions, Bridge: f.bridge}).Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, passageID, info.ActiveDocument)
}

func TestAnnotationService_LoadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	// A consumer showing the same passage later loads it again.
	err := f.annotations.Load(context.Background(), "s1", passageID, twoParagraphs)
	require.NoError(t, err)

	annotated, err := f.annotations.Annotated(context.Background(), "s1", passageID)
	require.NoError(t, err)
	assert.Equal(t, bravoHighlighted, annotated)
}

func TestAnnotationService_LoadRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	ctx := context.Background()

	err := f.annotations.Load(ctx, "s1", "", twoParagraphs)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.annotations.Load(ctx, "s1", passageID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = f.annotations.Load(ctx, "missing", passageID, twoParagraphs)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, _ := f.persistence.Export(ctx, "s1")
	assert.Empty(t, ids)
}

func TestAnnotationService_LoadOverlaysPersistedRecord(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.records.Seed(passageID, &domain.PersistedRecord{
		Annotated:    bravoHighlighted,
		Paragraphs:   []string{"<p>Alpha " + markOpen + "bravo" + markClose + ".</p>", "<p>Charlie delta.</p>"},
		LastModified: 42,
	})

	view := f.bind(t, "s1", 5, passageID, twoParagraphs)

	assert.Equal(t, bravoHighlighted, view.Annotated)
	assert.Equal(t, int64(42), view.LastModified)

	original, err := f.annotations.Original(context.Background(), "s1", passageID)
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, original)

	spans, err := f.annotations.Spans(context.Background(), "s1", passageID)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "bravo", spans[0].Text)
}

func TestAnnotationService_LoadSurvivesRecordStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.records.GetErr = errors.New("connection refused")

	view := f.bind(t, "s1", 5, passageID, twoParagraphs)

	assert.Equal(t, twoParagraphs, view.Annotated)
}

func TestAnnotationService_SharingPropagation(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	ctx := context.Background()

	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	// Item 6 shows the same passage: the markup it brings is ignored.
	view := f.bind(t, "s1", 6, passageID, twoParagraphs)
	assert.Equal(t, bravoHighlighted, view.Annotated)
	assert.Equal(t, []string{"Reading Comprehension-0-5", "Reading Comprehension-0-6"}, view.Consumers)

	resolved, err := f.annotations.Resolve(ctx, "s1", domain.ConsumerKey{Subject: readingSubj, ItemIndex: 5})
	require.NoError(t, err)
	assert.Equal(t, bravoHighlighted, resolved.Annotated)

	spans, err := f.annotations.Spans(ctx, "s1", passageID)
	require.NoError(t, err)
	assert.Len(t, spans, 1)
}

func TestAnnotationService_Highlight(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	before := f.bind(t, "s1", 5, passageID, twoParagraphs)

	res := f.highlight(t, "s1", passageID, 6, 11)

	assert.Equal(t, bravoHighlighted, res.Document.Annotated)
	assert.Greater(t, res.Document.Revision, before.Revision)
	assert.Greater(t, res.Document.LastModified, before.LastModified)
	require.Len(t, res.Spans, 1)
	assert.Equal(t, domain.SpanView{Path: "0.1", Text: "bravo", Style: markup.StyleHighlight}, res.Spans[0])
	assert.Equal(t, "<p>Charlie delta.</p>", res.Document.Paragraphs[1])
}

func TestAnnotationService_HighlightAcrossParagraphs(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)

	res := f.highlight(t, "s1", passageID, 6, 19)

	require.Len(t, res.Spans, 2)
	assert.Equal(t, "bravo.", res.Spans[0].Text)
	assert.Equal(t, "Charlie", res.Spans[1].Text)
	assert.Len(t, res.Document.Paragraphs, 2)
}

func TestAnnotationService_HighlightWithSelection(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)

	// The passage is rendered inside host node 2.1.
	res, err := f.annotations.Highlight(context.Background(), "s1", passageID, domain.HighlightRequest{
		Style: markup.StyleHighlightStrikethrough,
		Selection: &domain.PointSelection{
			Container: []int{2, 1},
			Anchor:    domain.SelectionPoint{Path: []int{2, 1, 0, 0}, Offset: 11},
			Focus:     domain.SelectionPoint{Path: []int{2, 1, 0, 0}, Offset: 6},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>Alpha "+markStruck+"bravo"+markClose+".</p><p>Charlie delta.</p>", res.Document.Annotated)
}

func TestAnnotationService_HighlightRejections(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.HighlightRequest
		want error
	}{
		{"no selection", domain.HighlightRequest{}, domain.ErrInvalidInput},
		{"both selections", domain.HighlightRequest{
			Offsets:   &domain.OffsetSelection{Start: 0, End: 1},
			Selection: &domain.PointSelection{},
		}, domain.ErrInvalidInput},
		{"unknown style", domain.HighlightRequest{Style: "underline", Offsets: &domain.OffsetSelection{Start: 0, End: 1}}, domain.ErrInvalidInput},
		{"collapsed", domain.HighlightRequest{Offsets: &domain.OffsetSelection{Start: 3, End: 3}}, domain.ErrCollapsedSelection},
		{"out of range", domain.HighlightRequest{Offsets: &domain.OffsetSelection{Start: 0, End: 500}}, domain.ErrInvalidRange},
		{"outside container", domain.HighlightRequest{Selection: &domain.PointSelection{
			Container: []int{1},
			Anchor:    domain.SelectionPoint{Path: []int{0, 0}, Offset: 0},
			Focus:     domain.SelectionPoint{Path: []int{1, 0, 0}, Offset: 3},
		}}, domain.ErrOutsideContainer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.annotations.Highlight(ctx, "s1", passageID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	annotated, err := f.annotations.Annotated(ctx, "s1", passageID)
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, annotated, "rejected selections must leave the passage untouched")
}

func TestAnnotationService_FeatureDisabledForSubject(t *testing.T) {
	f := newFixture(t)
	ws := f.session(t, "s1")
	ws.SetSubject("Mathematics")
	ctx := context.Background()

	require.NoError(t, f.annotations.Load(ctx, "s1", passageID, twoParagraphs))

	_, err := f.annotations.Highlight(ctx, "s1", passageID, domain.HighlightRequest{
		Offsets: &domain.OffsetSelection{Start: 6, End: 11},
	})
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)

	_, err = f.annotations.ResolveSelection(ctx, "s1", passageID, nil, annotate.Selection{})
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)

	f.sessions.Config().SetAnnotatedSubjects([]string{"mathematics"})
	_, err = f.annotations.Highlight(ctx, "s1", passageID, domain.HighlightRequest{
		Offsets: &domain.OffsetSelection{Start: 6, End: 11},
	})
	assert.NoError(t, err)
}

func TestAnnotationService_StaleRangeRejected(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	ctx := context.Background()

	r, err := f.annotations.ResolveSelection(ctx, "s1", passageID, nil, annotate.Selection{
		Anchor: annotate.Point{Path: markup.Path{1, 0}, Offset: 0},
		Focus:  annotate.Point{Path: markup.Path{1, 0}, Offset: 7},
	})
	require.NoError(t, err)

	f.highlight(t, "s1", passageID, 6, 11)

	_, err = f.annotations.CreateAnnotation(ctx, "s1", passageID, r, markup.Style{})
	assert.ErrorIs(t, err, domain.ErrStaleRange)

	// Resolving again against the current tree works.
	r, err = f.annotations.ResolveSelection(ctx, "s1", passageID, nil, annotate.Selection{
		Anchor: annotate.Point{Path: markup.Path{1, 0}, Offset: 0},
		Focus:  annotate.Point{Path: markup.Path{1, 0}, Offset: 7},
	})
	require.NoError(t, err)
	res, err := f.annotations.CreateAnnotation(ctx, "s1", passageID, r, markup.Style{})
	require.NoError(t, err)
	require.Len(t, res.Spans, 1)
	assert.Equal(t, "Charlie", res.Spans[0].Text)
}

func TestAnnotationService_ActivateGestures(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)
	ctx := context.Background()

	res, err := f.annotations.Activate(ctx, "s1", passageID, domain.ActivateRequest{Path: "0.1", Gesture: domain.GestureSecondaryActivate})
	require.NoError(t, err)
	assert.Equal(t, "<p>Alpha "+markStruck+"bravo"+markClose+".</p><p>Charlie delta.</p>", res.Document.Annotated)
	require.Len(t, res.Spans, 1)
	assert.Equal(t, markup.StyleHighlightStrikethrough, res.Spans[0].Style)

	res, err = f.annotations.Activate(ctx, "s1", passageID, domain.ActivateRequest{Path: "0.1", Gesture: domain.GestureSecondaryActivate})
	require.NoError(t, err)
	assert.Equal(t, bravoHighlighted, res.Document.Annotated)

	res, err = f.annotations.Activate(ctx, "s1", passageID, domain.ActivateRequest{Path: "0.1", Gesture: domain.GestureDoubleActivate})
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, res.Document.Annotated)
	assert.Empty(t, res.Spans)

	_, err = f.annotations.Activate(ctx, "s1", passageID, domain.ActivateRequest{Path: "0.1", Gesture: "triple"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnnotationService_RemoveRejectsNonSpans(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	ctx := context.Background()

	_, err := f.annotations.RemoveAnnotation(ctx, "s1", passageID, "0.0")
	assert.ErrorIs(t, err, domain.ErrNotAnnotation)

	_, err = f.annotations.RemoveAnnotation(ctx, "s1", passageID, "a.b")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.annotations.ToggleStrike(ctx, "s1", passageID, "7")
	assert.ErrorIs(t, err, domain.ErrNotAnnotation)
}

func TestAnnotationService_Clear(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)
	f.highlight(t, "s1", passageID, 12, 19)

	view, err := f.annotations.Clear(context.Background(), "s1", passageID)
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, view.Annotated)

	_, err = f.annotations.Clear(context.Background(), "s1", "pt1,passage9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnnotationService_UnknownDocument(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	ctx := context.Background()

	annotated, err := f.annotations.Annotated(ctx, "s1", "pt1,passage9")
	require.NoError(t, err)
	assert.Empty(t, annotated)

	original, err := f.annotations.Original(ctx, "s1", "pt1,passage9")
	require.NoError(t, err)
	assert.Empty(t, original)

	_, err = f.annotations.Highlight(ctx, "s1", "pt1,passage9", domain.HighlightRequest{
		Offsets: &domain.OffsetSelection{Start: 0, End: 1},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.annotations.Document(ctx, "s1", "pt1,passage9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.annotations.Resolve(ctx, "s1", domain.ConsumerKey{Subject: readingSubj, ItemIndex: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnnotationService_BindConflict(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)

	_, err := f.annotations.Bind(context.Background(), "s1", domain.BindRequest{
		Consumer:   domain.ConsumerKey{Subject: readingSubj, ItemIndex: 5},
		DocumentID: "pt1,passage2",
		Markup:     "<p>Echo.</p>",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)

	view, err := f.annotations.Resolve(context.Background(), "s1", domain.ConsumerKey{Subject: readingSubj, ItemIndex: 5})
	require.NoError(t, err)
	assert.Equal(t, passageID, view.ID)

	// The refused passage is not loaded either.
	annotated, err := f.annotations.Annotated(context.Background(), "s1", "pt1,passage2")
	require.NoError(t, err)
	assert.Empty(t, annotated)
	_, err = f.annotations.Document(context.Background(), "s1", "pt1,passage2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnnotationService_MutationsNeverWriteThrough(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	_, err := f.persistence.Record(context.Background(), passageID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, f.records.Puts[passageID])
}
