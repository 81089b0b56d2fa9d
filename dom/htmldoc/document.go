// Package htmldoc exposes parsed HTML as a live document for dom.Capture.
//
// There is no layout engine: elements occupy a unit box unless they are
// removed from rendering by display:none or declare a zero width and height.
// Styles come from a user-agent default sheet, <style> elements with simple
// compound selectors, and inline style attributes.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/anxuanzi/domsnap-go/dom"
)

// Document is a parsed HTML document.
type Document struct {
	root    *Node
	sheet   *stylesheet
	byHTML  map[*html.Node]*Node
	dropped int
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	return parse(r, nil)
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func parse(r io.Reader, frame *Node) (*Document, error) {
	top, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc := &Document{
		sheet:  &stylesheet{},
		byHTML: make(map[*html.Node]*Node),
	}

	// 1. Collect author styles before computing any node style
	for _, text := range styleTexts(top) {
		doc.dropped += doc.sheet.parseStylesheet(text)
	}

	// 2. Build the node tree
	doc.root = &Node{doc: doc, raw: top, kind: dom.KindDocument, frame: frame}
	doc.byHTML[top] = doc.root
	doc.buildChildren(doc.root, top, nil, false)
	return doc, nil
}

// Root returns the document node.
func (d *Document) Root() dom.Node {
	return d.root
}

// DroppedRules returns the number of stylesheet rules that could not be
// parsed and were ignored.
func (d *Document) DroppedRules() int {
	return d.dropped
}

// Locate resolves a structural path relative to the document node.
func (d *Document) Locate(xpath string) (dom.Node, error) {
	found, err := htmlquery.Query(d.root.raw, xpath)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", xpath, err)
	}
	if found == nil {
		return nil, nil
	}
	n, ok := d.byHTML[found]
	if !ok {
		return nil, nil
	}
	return n, nil
}

// buildChildren wraps the children of raw under parent. hidden propagates
// display:none from ancestors.
func (d *Document) buildChildren(parent *Node, raw *html.Node, parentStyle dom.Style, hidden bool) {
	for c := raw.FirstChild; c != nil; c = c.NextSibling {
		if isShadowTemplate(c) {
			continue
		}
		if n := d.build(c, parent, parentStyle, hidden); n != nil {
			parent.children = append(parent.children, n)
		}
	}
}

func (d *Document) build(raw *html.Node, parent *Node, parentStyle dom.Style, hidden bool) *Node {
	n := &Node{doc: d, raw: raw, parent: parent}
	d.byHTML[raw] = n

	switch raw.Type {
	case html.TextNode:
		n.kind = dom.KindText
		n.hidden = hidden
		return n
	case html.ElementNode:
		n.kind = dom.KindElement
	default:
		n.kind = dom.KindOther
		return n
	}

	n.style = d.sheet.computeStyle(raw, dom.PseudoNone, parentStyle)
	n.before = d.sheet.computeStyle(raw, dom.PseudoBefore, n.style)
	n.after = d.sheet.computeStyle(raw, dom.PseudoAfter, n.style)
	n.hidden = hidden || n.style.Get("display") == "none"

	// Declarative shadow root; closed roots stay unreachable
	for c := raw.FirstChild; c != nil; c = c.NextSibling {
		if isShadowTemplate(c) && attr(c, "shadowrootmode") == "open" {
			shadow := &Node{doc: d, raw: c, kind: dom.KindFragment, host: n}
			d.buildChildren(shadow, c, n.style, n.hidden)
			n.shadow = shadow
			break
		}
	}

	d.buildChildren(n, raw, n.style, n.hidden)
	return n
}

// styleTexts returns the contents of every <style> element in document order.
func styleTexts(top *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "style" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			out = append(out, sb.String())
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(top)
	return out
}

func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "template" {
		return false
	}
	mode := attr(n, "shadowrootmode")
	return mode == "open" || mode == "closed"
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}
