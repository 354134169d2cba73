package annotate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/markup"
)

// ValidFor reports whether r was resolved against revision.
func (r Range) ValidFor(revision uint64) bool {
	return r.Revision == revision
}

// Wrap returns a copy of frag where the text covered by r is wrapped in new
// annotation spans of the given style, together with the paths of the spans
// created.
//
// Text runs and inline elements partially covered by r are split at the
// range boundaries, so the result stays well formed even when r overlaps
// existing spans. Spans only ever hold inline content: a range crossing
// blocks, at any depth, yields one span per block, and blocks are never
// split or moved. Whitespace-only text between blocks is not wrapped.
func Wrap(frag *markup.Fragment, r Range, style markup.Style) (*markup.Fragment, []markup.Path, error) {
	from, err := TextOffset(frag, r.Start)
	if err != nil {
		return nil, nil, err
	}
	to, err := TextOffset(frag, r.End)
	if err != nil {
		return nil, nil, err
	}
	if from >= to {
		return nil, nil, domain.ErrCollapsedSelection
	}

	out := frag.Clone()
	created := make(map[*markup.Node]bool)
	wrapRange(out.Root, r.Start, r.End, style, true, created)
	if len(created) == 0 {
		return nil, nil, domain.ErrCollapsedSelection
	}
	markup.Normalize(out.Root)
	return out, out.PathsOf(created), nil
}

// wrapRange wraps the content of container between two points relative to
// it. Children holding blocks are descended into; each maximal run of inline
// children in between gets its own span.
func wrapRange(container *markup.Node, from, to Point, style markup.Style, top bool, created map[*markup.Node]bool) {
	from, ok := enter(container, from, false)
	if !ok {
		return
	}
	to, ok = enter(container, to, true)
	if !ok {
		return
	}
	first, last := from.Path[0], to.Path[0]
	if first > last {
		return
	}
	between := top || blockChild(container.Children)

	if first == last && container.Children[first].HasBlock() {
		at := markup.Path{first}
		wrapRange(container.Children[first], relative(from, at), relative(to, at), style, false, created)
		return
	}
	if !blockChild(container.Children[first : last+1]) {
		ancestor, node := deepestCommon(container, from, to)
		wrapRun(node, relative(from, ancestor), relative(to, ancestor), style, between && len(ancestor) == 0, created)
		return
	}

	// Right to left: splitting a child only shifts the siblings after it.
	runEnd := -1
	flush := func(lo, hi int) {
		begin, fin := Point{Path: markup.Path{}, Offset: lo}, Point{Path: markup.Path{}, Offset: hi + 1}
		if lo == first {
			begin = from
		}
		if hi == last {
			fin = to
		}
		wrapRun(container, begin, fin, style, between, created)
	}
	for k := last; k >= first; k-- {
		child := container.Children[k]
		if !child.HasBlock() {
			if runEnd < 0 {
				runEnd = k
			}
			continue
		}
		if runEnd >= 0 {
			flush(k+1, runEnd)
			runEnd = -1
		}
		at := markup.Path{k}
		begin, fin := Point{Path: markup.Path{}, Offset: 0}, Point{Path: markup.Path{}, Offset: len(child.Children)}
		if k == first {
			begin = relative(from, at)
		}
		if k == last {
			fin = relative(to, at)
		}
		wrapRange(child, begin, fin, style, false, created)
	}
	if runEnd >= 0 {
		flush(first, runEnd)
	}
}

// wrapRun wraps one run of inline content. With skipBlank set, a run made of
// whitespace text only is left unwrapped.
func wrapRun(container *markup.Node, from, to Point, style markup.Style, skipBlank bool, created map[*markup.Node]bool) {
	span := wrapWithin(container, from, to, style)
	if span == nil {
		return
	}
	if skipBlank && blank(span) {
		for i, c := range container.Children {
			if c == span {
				container.Children = splice(container.Children, i, span.Children)
				break
			}
		}
		return
	}
	created[span] = true
}

func blank(span *markup.Node) bool {
	for _, c := range span.Children {
		if c.Type != markup.TextNode {
			return false
		}
	}
	return strings.TrimSpace(span.TextContent()) == ""
}

func blockChild(nodes []*markup.Node) bool {
	for _, c := range nodes {
		if c.HasBlock() {
			return true
		}
	}
	return false
}

// enter rewrites a point placed directly on container as an equivalent point
// inside one of its children, so every point names a child in Path[0].
func enter(container *markup.Node, p Point, isEnd bool) (Point, bool) {
	if len(p.Path) > 0 {
		return p, true
	}
	if !isEnd {
		if p.Offset >= len(container.Children) {
			return p, false
		}
		return Point{Path: markup.Path{p.Offset}, Offset: 0}, true
	}
	last := p.Offset - 1
	if last < 0 || last >= len(container.Children) {
		return p, false
	}
	child := container.Children[last]
	end := len(child.Children)
	if child.Type == markup.TextNode {
		end = utf8.RuneCountInString(child.Text)
	}
	return Point{Path: markup.Path{last}, Offset: end}, true
}

// deepestCommon returns the deepest non-text node below container holding
// both points, and its path relative to container.
func deepestCommon(container *markup.Node, a, b Point) (markup.Path, *markup.Node) {
	common := markup.Path{}
	n := container
	for i := 0; i < len(a.Path) && i < len(b.Path) && a.Path[i] == b.Path[i]; i++ {
		child := n.Children[a.Path[i]]
		if child.Type == markup.TextNode {
			break
		}
		common = append(common, a.Path[i])
		n = child
	}
	return common, n
}

// Unwrap returns a copy of frag where the span at path is replaced by its
// children. For a span created by Wrap over plain text this restores the
// original markup exactly.
func Unwrap(frag *markup.Fragment, path markup.Path) (*markup.Fragment, error) {
	out := frag.Clone()
	parent, index, span, err := spanAt(out, path)
	if err != nil {
		return nil, err
	}

	parent.Children = splice(parent.Children, index, span.Children)
	// Spans and inline elements split by an overlapping wrap join again.
	mergeAt(parent, index+len(span.Children))
	mergeAt(parent, index)

	markup.Normalize(out.Root)
	return out, nil
}

// splice replaces nodes[i] with repl.
func splice(nodes []*markup.Node, i int, repl []*markup.Node) []*markup.Node {
	out := make([]*markup.Node, 0, len(nodes)-1+len(repl))
	out = append(out, nodes[:i]...)
	out = append(out, repl...)
	return append(out, nodes[i+1:]...)
}

// mergeAt joins parent.Children[i-1] and parent.Children[i] when they are
// halves of one split node, and continues along the seam inside them.
func mergeAt(parent *markup.Node, i int) {
	if i <= 0 || i >= len(parent.Children) {
		return
	}
	left, right := parent.Children[i-1], parent.Children[i]
	if !sameShell(left, right) {
		return
	}
	seam := len(left.Children)
	left.Children = append(left.Children, right.Children...)
	parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
	mergeAt(left, seam)
}

func sameShell(a, b *markup.Node) bool {
	switch {
	case a.Type == markup.AnnotationNode && b.Type == markup.AnnotationNode:
		return a.Style == b.Style
	case a.Type == markup.ElementNode && b.Type == markup.ElementNode && !a.IsBlock():
		if a.Tag != b.Tag || len(a.Attrs) != len(b.Attrs) {
			return false
		}
		for i := range a.Attrs {
			if a.Attrs[i] != b.Attrs[i] {
				return false
			}
		}
		return true
	}
	return false
}

// ToggleStrike returns a copy of frag with the strikethrough flag of the span
// at path flipped. Span boundaries are unchanged.
func ToggleStrike(frag *markup.Fragment, path markup.Path) (*markup.Fragment, error) {
	out := frag.Clone()
	_, _, span, err := spanAt(out, path)
	if err != nil {
		return nil, err
	}
	span.Style.Strikethrough = !span.Style.Strikethrough
	return out, nil
}

func spanAt(frag *markup.Fragment, path markup.Path) (*markup.Node, int, *markup.Node, error) {
	if len(path) == 0 {
		return nil, 0, nil, fmt.Errorf("%w: empty path", domain.ErrNotAnnotation)
	}
	parent, err := frag.NodeAt(path[:len(path)-1])
	if err != nil {
		return nil, 0, nil, fmt.Errorf("%w: %v", domain.ErrNotAnnotation, err)
	}
	index := path[len(path)-1]
	if index < 0 || index >= len(parent.Children) {
		return nil, 0, nil, fmt.Errorf("%w: no node at %s", domain.ErrNotAnnotation, path)
	}
	span := parent.Children[index]
	if span.Type != markup.AnnotationNode {
		return nil, 0, nil, fmt.Errorf("%w: %s node at %s", domain.ErrNotAnnotation, span.Type, path)
	}
	return parent, index, span, nil
}

func relative(p Point, ancestor markup.Path) Point {
	return Point{Path: p.Path[len(ancestor):].Clone(), Offset: p.Offset}
}

// wrapWithin wraps the children of container between two boundary points
// (relative to container) in a new span. Returns nil when nothing is covered.
func wrapWithin(container *markup.Node, from, to Point, style markup.Style) *markup.Node {
	endIdx := splitAt(container, to)
	before := len(container.Children)
	startIdx := splitAt(container, from)
	endIdx += len(container.Children) - before
	if startIdx >= endIdx {
		return nil
	}

	covered := append([]*markup.Node(nil), container.Children[startIdx:endIdx]...)
	span := markup.NewAnnotation(style, covered...)

	children := make([]*markup.Node, 0, len(container.Children)-len(covered)+1)
	children = append(children, container.Children[:startIdx]...)
	children = append(children, span)
	children = append(children, container.Children[endIdx:]...)
	container.Children = children
	return span
}

// splitAt turns a boundary point below container into a child index of
// container, splitting the text run and every partially covered ancestor in
// between. Split halves keep the tag, attributes and style of the original.
func splitAt(container *markup.Node, p Point) int {
	chain := []*markup.Node{container}
	n := container
	for _, idx := range p.Path {
		n = n.Children[idx]
		chain = append(chain, n)
	}

	level := len(chain) - 1
	idx := p.Offset
	if n.Type == markup.TextNode {
		parent := chain[level-1]
		ti := p.Path[len(p.Path)-1]
		switch runes := utf8.RuneCountInString(n.Text); {
		case p.Offset <= 0:
			idx = ti
		case p.Offset >= runes:
			idx = ti + 1
		default:
			cut := byteIndex(n.Text, p.Offset)
			right := markup.NewText(n.Text[cut:])
			n.Text = n.Text[:cut]
			parent.Children = insertAt(parent.Children, ti+1, right)
			idx = ti + 1
		}
		level--
	}

	for ; level > 0; level-- {
		e := chain[level]
		parent := chain[level-1]
		ei := p.Path[level-1]
		switch {
		case idx <= 0:
			idx = ei
		case idx >= len(e.Children):
			idx = ei + 1
		default:
			right := e.ShallowClone()
			right.Children = append([]*markup.Node(nil), e.Children[idx:]...)
			e.Children = append([]*markup.Node(nil), e.Children[:idx]...)
			parent.Children = insertAt(parent.Children, ei+1, right)
			idx = ei + 1
		}
	}
	return idx
}

func insertAt(nodes []*markup.Node, i int, n *markup.Node) []*markup.Node {
	out := make([]*markup.Node, 0, len(nodes)+1)
	out = append(out, nodes[:i]...)
	out = append(out, n)
	return append(out, nodes[i:]...)
}

func byteIndex(s string, runeOffset int) int {
	i := 0
	for pos := range s {
		if i == runeOffset {
			return pos
		}
		i++
	}
	return len(s)
}

func runeSlice(s string, from, to int) string {
	return s[byteIndex(s, from):byteIndex(s, to)]
}
