package htmldoc

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/anxuanzi/domsnap-go/dom"
)

// unitBox is the box given to rendered nodes in the absence of layout.
var unitBox = dom.Rect{Width: 1, Height: 1}

// Node is a parsed node. It implements dom.Node, dom.Scripted,
// dom.ShadowHost, and dom.FrameOwned.
type Node struct {
	doc      *Document
	raw      *html.Node
	kind     dom.NodeKind
	parent   *Node
	children []*Node

	shadow *Node // attached open shadow root
	host   *Node // shadow root only
	frame  *Node // embedded document only

	style  dom.Style
	before dom.Style
	after  dom.Style
	hidden bool

	load       sync.Once
	content    *Document
	contentErr error
}

var (
	_ dom.Node       = (*Node)(nil)
	_ dom.Scripted   = (*Node)(nil)
	_ dom.ShadowHost = (*Node)(nil)
	_ dom.FrameOwned = (*Node)(nil)
)

// Kind implements dom.Node.
func (n *Node) Kind() dom.NodeKind {
	return n.kind
}

// TagName implements dom.Node.
func (n *Node) TagName() string {
	if n.kind != dom.KindElement {
		return ""
	}
	return n.raw.Data
}

// Data implements dom.Node.
func (n *Node) Data() string {
	if n.kind != dom.KindText {
		return ""
	}
	return n.raw.Data
}

// Attributes implements dom.Node.
func (n *Node) Attributes() []dom.Attribute {
	if n.kind != dom.KindElement || len(n.raw.Attr) == 0 {
		return nil
	}
	out := make([]dom.Attribute, 0, len(n.raw.Attr))
	for _, a := range n.raw.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		out = append(out, dom.Attribute{Name: name, Value: a.Val})
	}
	return out
}

// Parent implements dom.Node.
func (n *Node) Parent() dom.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children implements dom.Node.
func (n *Node) Children() []dom.Node {
	out := make([]dom.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// Style implements dom.Node.
func (n *Node) Style(pseudo string) (dom.Style, bool) {
	if n.kind != dom.KindElement {
		return nil, false
	}
	switch pseudo {
	case dom.PseudoNone:
		return n.style, true
	case dom.PseudoBefore:
		return n.before, true
	case dom.PseudoAfter:
		return n.after, true
	}
	return nil, false
}

// Rect implements dom.Node. Nodes under display:none have an empty box;
// otherwise elements honor declared px width and height.
func (n *Node) Rect() dom.Rect {
	if n.hidden {
		return dom.Rect{}
	}
	switch n.kind {
	case dom.KindText:
		return unitBox
	case dom.KindElement:
		box := unitBox
		if w, ok := pxLength(n.style.Get("width")); ok {
			box.Width = w
		}
		if h, ok := pxLength(n.style.Get("height")); ok {
			box.Height = h
		}
		return box
	}
	return dom.Rect{}
}

// ShadowRoot implements dom.Node.
func (n *Node) ShadowRoot() dom.Node {
	if n.shadow == nil {
		return nil
	}
	return n.shadow
}

// Host implements dom.ShadowHost.
func (n *Node) Host() dom.Node {
	if n.host == nil {
		return nil
	}
	return n.host
}

// FrameElement implements dom.FrameOwned.
func (n *Node) FrameElement() dom.Node {
	if n.frame == nil {
		return nil
	}
	return n.frame
}

// ContentDocument implements dom.Node. An iframe srcdoc is parsed once, on
// first access; concurrent captures share the result. A frame that only
// names an external src cannot be read.
func (n *Node) ContentDocument() (dom.Node, error) {
	if n.kind != dom.KindElement {
		return nil, nil
	}
	switch strings.ToLower(n.raw.Data) {
	case "iframe", "frame":
	default:
		return nil, nil
	}

	n.load.Do(func() {
		srcdoc, hasSrcdoc := n.attr("srcdoc")
		src, _ := n.attr("src")
		switch {
		case hasSrcdoc:
			n.content, n.contentErr = parse(strings.NewReader(srcdoc), n)
		case src != "" && src != "about:blank":
			n.contentErr = fmt.Errorf("htmldoc: frame %q: %w", src, dom.ErrFrameInaccessible)
		default:
			n.content, n.contentErr = parse(strings.NewReader(""), n)
		}
	})

	if n.contentErr != nil {
		return nil, n.contentErr
	}
	return n.content.root, nil
}

// EventListeners implements dom.Scripted. Parsed markup has no listeners to
// introspect.
func (n *Node) EventListeners() (map[string]bool, bool) {
	return nil, false
}

// HandlerProperty implements dom.Scripted using inline on<event> attributes.
func (n *Node) HandlerProperty(event string) bool {
	_, ok := n.attr("on" + event)
	return ok
}

// Draggable implements dom.Scripted.
func (n *Node) Draggable() bool {
	v, _ := n.attr("draggable")
	return v == "true"
}

func (n *Node) attr(name string) (string, bool) {
	if n.kind != dom.KindElement {
		return "", false
	}
	for _, a := range n.raw.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
