// Package dom builds structured snapshots of rendered documents.
//
// A snapshot is a flat map from sequential identifiers to node descriptors
// plus the identifier of the root, produced by a single walk over a live
// document supplied through the Node interface.
package dom

import "errors"

// NodeKind classifies a node of the live document.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindElement
	KindText
	KindDocument
	KindFragment // shadow roots and other document fragments
)

// Pseudo-element names accepted by Node.Style.
const (
	PseudoNone   = ""
	PseudoBefore = "::before"
	PseudoAfter  = "::after"
)

var (
	// ErrNilDocument is returned when a capture is requested without a document.
	ErrNilDocument = errors.New("dom: nil document")

	// ErrFrameInaccessible reports an embedded document that cannot be read,
	// typically because of a cross-origin restriction.
	ErrFrameInaccessible = errors.New("dom: embedded document inaccessible")
)

// Attribute is a single name/value pair of an element.
type Attribute struct {
	Name  string
	Value string
}

// Rect is a rendered box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsEmpty reports whether the box has neither width nor height.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 && r.Height <= 0
}

// HasArea reports whether the box has both width and height.
func (r Rect) HasArea() bool {
	return r.Width > 0 && r.Height > 0
}

// Style is a computed style: property name to computed value.
type Style map[string]string

// Get returns the computed value of a property, or "" when unknown.
func (s Style) Get(property string) string {
	if s == nil {
		return ""
	}
	return s[property]
}

// Node is the read-only view of a live document the snapshot engine walks.
// Implementations must return the same value for the same underlying node so
// that nodes can be compared with ==.
type Node interface {
	// Kind returns the node classification.
	Kind() NodeKind

	// TagName returns the element tag name in any case. Empty for non-elements.
	TagName() string

	// Data returns the character data of a text node.
	Data() string

	// Attributes returns the element attributes in document order.
	Attributes() []Attribute

	// Parent returns the parent node, or nil at a document or shadow root.
	Parent() Node

	// Children returns the child nodes in document order.
	Children() []Node

	// Style returns the computed style of the element or one of its
	// pseudo-elements. ok is false when no style is available.
	Style(pseudo string) (style Style, ok bool)

	// Rect returns the rendered box of the node.
	Rect() Rect

	// ShadowRoot returns the attached shadow root, or nil.
	ShadowRoot() Node

	// ContentDocument returns the document embedded by a frame element.
	// An error reports that the document exists but cannot be accessed.
	ContentDocument() (Node, error)
}

// Scripted is implemented by documents that can answer questions about
// script state attached to elements.
type Scripted interface {
	// EventListeners reports registered listeners by event type. ok is false
	// when the document cannot introspect listeners.
	EventListeners() (listeners map[string]bool, ok bool)

	// HandlerProperty reports whether the legacy on<event> property is set.
	HandlerProperty(event string) bool

	// Draggable reports the draggable property.
	Draggable() bool
}

// ShadowHost is implemented by shadow root nodes that can report the element
// they are attached to.
type ShadowHost interface {
	Host() Node
}

// FrameOwned is implemented by embedded documents that can report the frame
// element that owns them.
type FrameOwned interface {
	FrameElement() Node
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n Node, name string) (string, bool) {
	for _, a := range n.Attributes() {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// parentElement returns the parent when it is an element.
func parentElement(n Node) Node {
	p := n.Parent()
	if p == nil || p.Kind() != KindElement {
		return nil
	}
	return p
}

// elementChildren returns the element children of n.
func elementChildren(n Node) []Node {
	children := n.Children()
	out := make([]Node, 0, len(children))
	for _, c := range children {
		if c.Kind() == KindElement {
			out = append(out, c)
		}
	}
	return out
}
