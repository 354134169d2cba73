package markup

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker attributes identifying an annotation span in rendered markup.
const (
	MarkerTag       = "mark"
	MarkerClass     = "passage-highlight"
	MarkerAttr      = "data-passage-highlight"
	strikeDecl      = "text-decoration: line-through"
	paragraphTag    = "p"
	lineThroughWord = "line-through"
)

// Parse turns passage markup into a Fragment. Comments and doctypes are
// dropped. Elements carrying the marker attribute become annotation spans.
func Parse(raw string) (*Fragment, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(raw), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	var blocks []*Node
	for _, n := range nodes {
		if c := fromHTML(n); c != nil {
			blocks = append(blocks, c)
		}
	}
	f := NewFragment(blocks...)
	Normalize(f.Root)
	return f, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(raw string) *Fragment {
	f, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return f
}

func fromHTML(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.ElementNode:
		var out *Node
		if isMarker(n) {
			out = NewAnnotation(Style{Strikethrough: hasLineThrough(n)})
		} else {
			out = &Node{Type: ElementNode, Tag: n.Data}
			for _, a := range n.Attr {
				key := a.Key
				if a.Namespace != "" {
					key = a.Namespace + ":" + a.Key
				}
				out.Attrs = append(out.Attrs, Attr{Key: key, Val: a.Val})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				out.Children = append(out.Children, child)
			}
		}
		return out
	default:
		return nil
	}
}

func isMarker(n *html.Node) bool {
	if n.Data != MarkerTag {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == MarkerAttr {
			return true
		}
	}
	return false
}

func hasLineThrough(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "style" && strings.Contains(a.Val, lineThroughWord) {
			return true
		}
	}
	return false
}

// Render serialises the fragment back to markup.
func (f *Fragment) Render() (string, error) {
	if f == nil || f.Root == nil {
		return "", nil
	}
	var b strings.Builder
	for _, c := range f.Root.Children {
		if err := html.Render(&b, toHTML(c)); err != nil {
			return "", fmt.Errorf("failed to render markup: %w", err)
		}
	}
	return b.String(), nil
}

// RenderNode serialises a single node including its own tag.
func RenderNode(n *Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, toHTML(n)); err != nil {
		return "", fmt.Errorf("failed to render markup: %w", err)
	}
	return b.String(), nil
}

// Paragraphs returns the outer markup of every <p> element in document order.
func (f *Fragment) Paragraphs() ([]string, error) {
	paragraphs := []string{}
	var renderErr error
	Walk(f.Root, func(n *Node, _ Path) bool {
		if renderErr != nil {
			return false
		}
		if n.Type == ElementNode && n.Tag == paragraphTag {
			s, err := RenderNode(n)
			if err != nil {
				renderErr = err
				return false
			}
			paragraphs = append(paragraphs, s)
		}
		return true
	})
	if renderErr != nil {
		return nil, renderErr
	}
	return paragraphs, nil
}

func toHTML(n *Node) *html.Node {
	var out *html.Node
	switch n.Type {
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Text}
	case AnnotationNode:
		out = &html.Node{
			Type:     html.ElementNode,
			Data:     MarkerTag,
			DataAtom: atom.Mark,
			Attr: []html.Attribute{
				{Key: "class", Val: MarkerClass},
				{Key: MarkerAttr, Val: "true"},
			},
		}
		if n.Style.Strikethrough {
			out.Attr = append(out.Attr, html.Attribute{Key: "style", Val: strikeDecl})
		}
	case RootNode:
		out = &html.Node{Type: html.DocumentNode}
	default:
		out = &html.Node{
			Type:     html.ElementNode,
			Data:     n.Tag,
			DataAtom: atom.Lookup([]byte(n.Tag)),
		}
		for _, a := range n.Attrs {
			out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
	}
	for _, c := range n.Children {
		out.AppendChild(toHTML(c))
	}
	return out
}
