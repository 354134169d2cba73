package domain

// SelectionPoint is a position in a rendered tree: the child indices leading
// to a node plus an offset (runes into a text node, children into an element)
type SelectionPoint struct {
	Path   []int `json:"path"`
	Offset int   `json:"offset" validate:"gte=0"`
}

// PointSelection is a live selection in host coordinates. Container is the
// path of the passage container in the host tree.
type PointSelection struct {
	Container []int          `json:"container"`
	Anchor    SelectionPoint `json:"anchor"`
	Focus     SelectionPoint `json:"focus"`
}

// OffsetSelection is a selection given as rune offsets into the passage text
type OffsetSelection struct {
	Start int `json:"start" validate:"gte=0"`
	End   int `json:"end" validate:"gte=0"`
}

// HighlightRequest asks for a new annotation span. Exactly one of Offsets
// and Selection is expected.
type HighlightRequest struct {
	Style     string           `json:"style"`
	Offsets   *OffsetSelection `json:"offsets,omitempty"`
	Selection *PointSelection  `json:"selection,omitempty"`
}

// BindRequest binds a consumer to a passage and loads it
type BindRequest struct {
	Consumer   ConsumerKey `json:"consumer" validate:"required"`
	DocumentID string      `json:"document_id" validate:"required"`
	Markup     string      `json:"markup" validate:"required"`
}

// SpanRequest addresses an annotation span by path
type SpanRequest struct {
	Path string `json:"path"`
}

// ActivateRequest delivers a host gesture on a span
type ActivateRequest struct {
	Path    string  `json:"path"`
	Gesture Gesture `json:"gesture" validate:"required"`
}

// SubjectRequest sets the content type being displayed
type SubjectRequest struct {
	Subject string `json:"subject" validate:"required"`
}
