package markup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPath is returned when a Path does not address a node of the tree.
var ErrBadPath = errors.New("path does not address a node")

// Path addresses a node by the child indices leading to it from the root.
// The empty path is the root itself.
type Path []int

// String renders the path as dot separated indices, e.g. "0.2.1".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// ParsePath is the inverse of Path.String.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid path segment %q", part)
		}
		p[i] = idx
	}
	return p, nil
}

// HasPrefix reports whether prefix is an ancestor-or-self path of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	return append(Path{}, p...)
}

// Fragment is a parsed passage: an ordered list of block nodes under a root.
type Fragment struct {
	Root *Node
}

// NewFragment returns a fragment whose root holds blocks.
func NewFragment(blocks ...*Node) *Fragment {
	return &Fragment{Root: &Node{Type: RootNode, Children: blocks}}
}

// Blocks returns the top-level nodes.
func (f *Fragment) Blocks() []*Node {
	if f == nil || f.Root == nil {
		return nil
	}
	return f.Root.Children
}

// Clone returns a deep copy of the fragment.
func (f *Fragment) Clone() *Fragment {
	if f == nil {
		return nil
	}
	return &Fragment{Root: f.Root.Clone()}
}

// Equal reports whether two fragments have identical trees.
func (f *Fragment) Equal(other *Fragment) bool {
	if f == nil || other == nil {
		return f == other
	}
	return Equal(f.Root, other.Root)
}

// Text returns the text content of the whole fragment.
func (f *Fragment) Text() string {
	return f.Root.TextContent()
}

// NodeAt returns the node addressed by p.
func (f *Fragment) NodeAt(p Path) (*Node, error) {
	n := f.Root
	for depth, idx := range p {
		if idx < 0 || idx >= len(n.Children) {
			return nil, fmt.Errorf("%w: %s (depth %d)", ErrBadPath, p, depth)
		}
		n = n.Children[idx]
	}
	return n, nil
}

// Span describes one annotation span in a fragment.
type Span struct {
	Path  Path
	Text  string
	Style Style
}

// Spans lists every annotation span in document order, outer spans first.
func (f *Fragment) Spans() []Span {
	var spans []Span
	Walk(f.Root, func(n *Node, p Path) bool {
		if n.Type == AnnotationNode {
			spans = append(spans, Span{Path: p.Clone(), Text: n.TextContent(), Style: n.Style})
		}
		return true
	})
	return spans
}

// PathsOf returns the paths of the given nodes, in document order.
func (f *Fragment) PathsOf(nodes map[*Node]bool) []Path {
	var paths []Path
	Walk(f.Root, func(n *Node, p Path) bool {
		if nodes[n] {
			paths = append(paths, p.Clone())
		}
		return true
	})
	return paths
}

// Walk visits n and its descendants in document order. The path passed to
// fn is only valid during the call. Returning false skips the children.
func Walk(n *Node, fn func(n *Node, p Path) bool) {
	walk(n, Path{}, fn)
}

func walk(n *Node, p Path, fn func(*Node, Path) bool) {
	if !fn(n, p) {
		return
	}
	for i, c := range n.Children {
		walk(c, append(p, i), fn)
	}
}
