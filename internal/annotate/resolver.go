// Package annotate resolves reader selections against a passage tree and
// applies annotation spans to it. All transformations are pure: they work on
// a clone and return the new tree, leaving the input untouched.
package annotate

import (
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/markup"
)

// Point is a boundary position in a fragment. For a text node Offset counts
// runes into its text; for any other node it is a child index.
type Point struct {
	Path   markup.Path
	Offset int
}

// Selection is a live selection in host coordinates: paths start at the host
// root, not at the passage container.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Range is a resolved, ordered selection inside a fragment. It is only valid
// for the revision it was resolved against.
type Range struct {
	Ancestor markup.Path
	Start    Point
	End      Point
	Revision uint64
}

// Resolve maps a host selection onto the fragment rendered inside the
// container at containerPath. Selections leaving the container, addressing
// nothing, or covering no text are rejected.
func Resolve(frag *markup.Fragment, revision uint64, containerPath markup.Path, sel Selection) (Range, error) {
	anchor, err := relativeTo(containerPath, sel.Anchor)
	if err != nil {
		return Range{}, err
	}
	focus, err := relativeTo(containerPath, sel.Focus)
	if err != nil {
		return Range{}, err
	}
	return resolvePoints(frag, revision, anchor, focus)
}

// ResolveOffsets resolves a selection given as rune offsets into the text
// content of the fragment.
func ResolveOffsets(frag *markup.Fragment, revision uint64, start, end int) (Range, error) {
	if start > end {
		start, end = end, start
	}
	total := frag.Root.TextLen()
	if start < 0 || end > total {
		return Range{}, fmt.Errorf("%w: offsets %d..%d outside text of length %d", domain.ErrInvalidRange, start, end, total)
	}
	if start == end {
		return Range{}, domain.ErrCollapsedSelection
	}

	startPoint, ok := locateOffset(frag.Root, start, false)
	if !ok {
		return Range{}, fmt.Errorf("%w: offset %d", domain.ErrInvalidRange, start)
	}
	endPoint, ok := locateOffset(frag.Root, end, true)
	if !ok {
		return Range{}, fmt.Errorf("%w: offset %d", domain.ErrInvalidRange, end)
	}
	return Range{
		Ancestor: commonAncestor(frag, startPoint, endPoint),
		Start:    startPoint,
		End:      endPoint,
		Revision: revision,
	}, nil
}

func relativeTo(container markup.Path, p Point) (Point, error) {
	if !p.Path.HasPrefix(container) {
		return Point{}, fmt.Errorf("%w: %s not under %s", domain.ErrOutsideContainer, p.Path, container)
	}
	return Point{Path: p.Path[len(container):].Clone(), Offset: p.Offset}, nil
}

func resolvePoints(frag *markup.Fragment, revision uint64, a, b Point) (Range, error) {
	ao, err := TextOffset(frag, a)
	if err != nil {
		return Range{}, err
	}
	bo, err := TextOffset(frag, b)
	if err != nil {
		return Range{}, err
	}
	if ao == bo {
		return Range{}, domain.ErrCollapsedSelection
	}
	if bo < ao {
		a, b = b, a
	}
	return Range{
		Ancestor: commonAncestor(frag, a, b),
		Start:    a,
		End:      b,
		Revision: revision,
	}, nil
}

// TextOffset returns the rune offset of p into the fragment's text content.
func TextOffset(frag *markup.Fragment, p Point) (int, error) {
	n, err := frag.NodeAt(p.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidRange, err)
	}

	limit := len(n.Children)
	if n.Type == markup.TextNode {
		limit = utf8.RuneCountInString(n.Text)
	}
	if p.Offset < 0 || p.Offset > limit {
		return 0, fmt.Errorf("%w: offset %d outside 0..%d at %s", domain.ErrInvalidRange, p.Offset, limit, p.Path)
	}

	offset := textBefore(frag.Root, p.Path)
	if n.Type == markup.TextNode {
		return offset + p.Offset, nil
	}
	for _, c := range n.Children[:p.Offset] {
		offset += c.TextLen()
	}
	return offset, nil
}

// textBefore counts the text preceding the node at path.
func textBefore(root *markup.Node, path markup.Path) int {
	total := 0
	n := root
	for _, idx := range path {
		for _, sibling := range n.Children[:idx] {
			total += sibling.TextLen()
		}
		n = n.Children[idx]
	}
	return total
}

// locateOffset finds the text node holding a rune offset. A start offset on
// a boundary binds to the following text run, an end offset to the preceding
// one, so ranges never begin or end on an empty edge of a run.
func locateOffset(root *markup.Node, offset int, isEnd bool) (Point, bool) {
	var (
		found Point
		ok    bool
		seen  int
	)
	markup.Walk(root, func(n *markup.Node, p markup.Path) bool {
		if ok {
			return false
		}
		if n.Type != markup.TextNode {
			return true
		}
		length := utf8.RuneCountInString(n.Text)
		from, to := seen, seen+length
		seen = to
		if length == 0 {
			return false
		}
		if (!isEnd && offset >= from && offset < to) || (isEnd && offset > from && offset <= to) {
			found = Point{Path: p.Clone(), Offset: offset - from}
			ok = true
		}
		return false
	})
	return found, ok
}

// commonAncestor returns the deepest node containing both points. When both
// points sit in the same text node, its parent is returned.
func commonAncestor(frag *markup.Fragment, a, b Point) markup.Path {
	n := len(a.Path)
	if len(b.Path) < n {
		n = len(b.Path)
	}
	common := markup.Path{}
	for i := 0; i < n && a.Path[i] == b.Path[i]; i++ {
		common = append(common, a.Path[i])
	}
	if node, err := frag.NodeAt(common); err == nil && node.Type == markup.TextNode && len(common) > 0 {
		common = common[:len(common)-1]
	}
	return common
}
