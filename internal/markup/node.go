// Package markup holds the passage document model: a small node tree of
// blocks, inline elements, text runs and annotation spans, plus the codec
// that turns passage HTML into that tree and back.
package markup

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	// RootNode is the synthetic container of a Fragment.
	RootNode NodeType = iota
	// ElementNode is an ordinary markup element (p, b, em, span...).
	ElementNode
	// TextNode is a run of character data.
	TextNode
	// AnnotationNode is a highlight span added by a reader.
	AnnotationNode
)

func (t NodeType) String() string {
	switch t {
	case RootNode:
		return "root"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case AnnotationNode:
		return "annotation"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Attr is a single element attribute. Order is preserved on render.
type Attr struct {
	Key string `json:"key"`
	Val string `json:"val"`
}

// Style is the visual treatment of an annotation span.
type Style struct {
	Strikethrough bool `json:"strikethrough"`
}

// Style names as exchanged with hosts.
const (
	StyleHighlight              = "highlight"
	StyleHighlightStrikethrough = "highlight+strikethrough"
)

// String returns the style name.
func (s Style) String() string {
	if s.Strikethrough {
		return StyleHighlightStrikethrough
	}
	return StyleHighlight
}

// ParseStyle maps a style name to a Style. The empty string means highlight.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StyleHighlight:
		return Style{}, nil
	case StyleHighlightStrikethrough, "strikethrough":
		return Style{Strikethrough: true}, nil
	default:
		return Style{}, fmt.Errorf("unknown annotation style %q", name)
	}
}

// Node is one node of the document tree.
type Node struct {
	Type     NodeType
	Tag      string // ElementNode only
	Attrs    []Attr // ElementNode only
	Text     string // TextNode only
	Style    Style  // AnnotationNode only
	Children []*Node
}

// NewText returns a text node.
func NewText(s string) *Node {
	return &Node{Type: TextNode, Text: s}
}

// NewElement returns an element node with the given children.
func NewElement(tag string, attrs []Attr, children ...*Node) *Node {
	return &Node{Type: ElementNode, Tag: tag, Attrs: attrs, Children: children}
}

// NewAnnotation returns an annotation span wrapping children.
func NewAnnotation(style Style, children ...*Node) *Node {
	return &Node{Type: AnnotationNode, Style: style, Children: children}
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := n.ShallowClone()
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// ShallowClone copies n without its children.
func (n *Node) ShallowClone() *Node {
	c := &Node{
		Type:  n.Type,
		Tag:   n.Tag,
		Text:  n.Text,
		Style: n.Style,
	}
	if len(n.Attrs) > 0 {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	return c
}

// TextContent concatenates all text below n in document order.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.Type == TextNode {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// TextLen is the rune length of TextContent.
func (n *Node) TextLen() int {
	if n.Type == TextNode {
		return utf8.RuneCountInString(n.Text)
	}
	total := 0
	for _, c := range n.Children {
		total += c.TextLen()
	}
	return total
}

// blockTags are the elements that start a new block. Annotation spans are
// inline and must never contain one of them.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "td": true, "tfoot": true, "th": true,
	"thead": true, "tr": true, "ul": true,
}

// IsBlock reports whether n is a block-level element.
func (n *Node) IsBlock() bool {
	return n.Type == ElementNode && blockTags[n.Tag]
}

// HasBlock reports whether n is a block-level element or contains one.
func (n *Node) HasBlock() bool {
	if n.IsBlock() {
		return true
	}
	for _, c := range n.Children {
		if c.HasBlock() {
			return true
		}
	}
	return false
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Tag != b.Tag || a.Text != b.Text || a.Style != b.Style {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Normalize merges adjacent text runs and drops empty text runs and empty
// annotation spans below n. Elements are kept even when empty.
func Normalize(n *Node) {
	if n == nil || n.Type == TextNode {
		return
	}
	out := n.Children[:0]
	for _, c := range n.Children {
		Normalize(c)
		switch {
		case c.Type == TextNode && c.Text == "":
			continue
		case c.Type == AnnotationNode && len(c.Children) == 0:
			continue
		case c.Type == TextNode && len(out) > 0 && out[len(out)-1].Type == TextNode:
			out[len(out)-1].Text += c.Text
			continue
		}
		out = append(out, c)
	}
	for i := len(out); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = out
}
