package domain

import (
	"fmt"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/markup"
)

// RecordKeyPrefix namespaces persisted records in durable storage
const RecordKeyPrefix = "rc_passage_highlights_"

// RecordKey returns the durable storage key for a document
func RecordKey(documentID string) string {
	return RecordKeyPrefix + documentID
}

// DocumentID builds the identity of a passage shared by the items of a test part
func DocumentID(testPartID, passageID string) string {
	return testPartID + "," + passageID
}

// DocumentState is the in-memory state of one passage.
// Annotated starts equal to Original and is only ever changed by annotation
// insert/remove/restyle, so paragraph boundaries of Original are preserved.
type DocumentState struct {
	ID           string
	Original     *markup.Fragment
	Annotated    *markup.Fragment
	Paragraphs   []string
	LastModified int64  // epoch milliseconds, strictly increasing per document
	Revision     uint64 // bumped on every change of Annotated
}

// NewDocumentState creates state for a freshly parsed passage
func NewDocumentState(id string, original *markup.Fragment, now time.Time) (*DocumentState, error) {
	paragraphs, err := original.Paragraphs()
	if err != nil {
		return nil, err
	}
	return &DocumentState{
		ID:           id,
		Original:     original,
		Annotated:    original.Clone(),
		Paragraphs:   paragraphs,
		LastModified: now.UnixMilli(),
	}, nil
}

// Apply replaces the annotated tree and refreshes the derived fields
func (d *DocumentState) Apply(annotated *markup.Fragment, now time.Time) error {
	paragraphs, err := annotated.Paragraphs()
	if err != nil {
		return err
	}
	d.Annotated = annotated
	d.Paragraphs = paragraphs
	d.touch(now)
	return nil
}

// Overlay replaces the annotated state with a persisted record
func (d *DocumentState) Overlay(rec *PersistedRecord) error {
	annotated, err := markup.Parse(rec.Annotated)
	if err != nil {
		return fmt.Errorf("failed to parse persisted record %s: %w", d.ID, err)
	}
	d.Annotated = annotated
	d.Paragraphs = append([]string{}, rec.Paragraphs...)
	if rec.LastModified > 0 {
		d.LastModified = rec.LastModified
	}
	d.Revision++
	return nil
}

func (d *DocumentState) touch(now time.Time) {
	ms := now.UnixMilli()
	if ms <= d.LastModified {
		ms = d.LastModified + 1
	}
	d.LastModified = ms
	d.Revision++
}

// Clone returns a deep copy of the state
func (d *DocumentState) Clone() *DocumentState {
	return &DocumentState{
		ID:           d.ID,
		Original:     d.Original.Clone(),
		Annotated:    d.Annotated.Clone(),
		Paragraphs:   append([]string{}, d.Paragraphs...),
		LastModified: d.LastModified,
		Revision:     d.Revision,
	}
}

// Record returns the durable representation of the state
func (d *DocumentState) Record() (*PersistedRecord, error) {
	annotated, err := d.Annotated.Render()
	if err != nil {
		return nil, err
	}
	return &PersistedRecord{
		Annotated:    annotated,
		Paragraphs:   append([]string{}, d.Paragraphs...),
		LastModified: d.LastModified,
	}, nil
}

// Snapshot returns the export representation of the state
func (d *DocumentState) Snapshot() (DocumentSnapshot, error) {
	raw, err := d.Original.Render()
	if err != nil {
		return DocumentSnapshot{}, err
	}
	annotated, err := d.Annotated.Render()
	if err != nil {
		return DocumentSnapshot{}, err
	}
	return DocumentSnapshot{
		Raw:          raw,
		Annotated:    annotated,
		Paragraphs:   append([]string{}, d.Paragraphs...),
		LastModified: d.LastModified,
		Revision:     d.Revision,
	}, nil
}

// View returns the read model of the state
func (d *DocumentState) View() (*DocumentView, error) {
	annotated, err := d.Annotated.Render()
	if err != nil {
		return nil, err
	}
	return &DocumentView{
		ID:           d.ID,
		Annotated:    annotated,
		Paragraphs:   append([]string{}, d.Paragraphs...),
		LastModified: d.LastModified,
		Revision:     d.Revision,
	}, nil
}

// DocumentFromSnapshot rebuilds state from an exported snapshot
func DocumentFromSnapshot(id string, s DocumentSnapshot) (*DocumentState, error) {
	original, err := markup.Parse(s.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse raw markup of %s: %w", id, err)
	}
	annotated, err := markup.Parse(s.Annotated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse annotated markup of %s: %w", id, err)
	}
	paragraphs := s.Paragraphs
	if paragraphs == nil {
		if paragraphs, err = annotated.Paragraphs(); err != nil {
			return nil, err
		}
	}
	return &DocumentState{
		ID:           id,
		Original:     original,
		Annotated:    annotated,
		Paragraphs:   append([]string{}, paragraphs...),
		LastModified: s.LastModified,
		Revision:     s.Revision,
	}, nil
}

// PersistedRecord is the durable form of a document's annotated state.
// The original markup is never persisted.
type PersistedRecord struct {
	Annotated    string   `json:"annotated"`
	Paragraphs   []string `json:"paragraphs"`
	LastModified int64    `json:"lastModified"`
}

// DocumentSnapshot is the export form of one document
type DocumentSnapshot struct {
	Raw          string   `json:"raw"`
	Annotated    string   `json:"annotated"`
	Paragraphs   []string `json:"paragraphs"`
	LastModified int64    `json:"lastModified"`
	Revision     uint64   `json:"revision,omitempty"`
}

// Snapshot is the export form of a whole annotation store, keyed by document ID
type Snapshot map[string]DocumentSnapshot

// DocumentView is the read model returned to hosts
type DocumentView struct {
	ID           string   `json:"id"`
	Annotated    string   `json:"annotated"`
	Paragraphs   []string `json:"paragraphs"`
	LastModified int64    `json:"last_modified"`
	Revision     uint64   `json:"revision"`
	Consumers    []string `json:"consumers,omitempty"`
}

// SpanView describes an annotation span to hosts
type SpanView struct {
	Path  string `json:"path"`
	Text  string `json:"text"`
	Style string `json:"style"`
}

// AnnotationResult is returned after a mutation
type AnnotationResult struct {
	Document *DocumentView `json:"document"`
	Spans    []SpanView    `json:"spans,omitempty"`
}

// Gesture is a host input mapped to an annotation intent
type Gesture string

const (
	// GestureDoubleActivate removes the span (double click)
	GestureDoubleActivate Gesture = "double_activate"
	// GestureSecondaryActivate toggles strikethrough (context click)
	GestureSecondaryActivate Gesture = "secondary_activate"
)

// IsValid checks if the gesture is known
func (g Gesture) IsValid() bool {
	return g == GestureDoubleActivate || g == GestureSecondaryActivate
}
