package dom

import (
	"strings"

	"go.uber.org/zap"
)

// frameTags are elements whose children are replaced by an embedded document.
var frameTags = map[string]bool{
	"iframe": true,
	"frame":  true,
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithBoundaryStop controls whether structural paths stop at shadow roots
// and embedded documents. Enabled by default.
func WithBoundaryStop(stop bool) Option {
	return func(a *Assembler) {
		a.stopAtBoundary = stop
	}
}

// WithBounds controls whether element descriptors carry their rendered box.
// Enabled by default.
func WithBounds(enabled bool) Option {
	return func(a *Assembler) {
		a.bounds = enabled
	}
}

// Assembler produces snapshots. It holds configuration only; every Capture
// call owns fresh identifier and result state, so an Assembler can be reused
// and shared.
type Assembler struct {
	logger         *zap.Logger
	stopAtBoundary bool
	bounds         bool
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		logger:         zap.NewNop(),
		stopAtBoundary: true,
		bounds:         true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("dom")
	return a
}

// Capture snapshots a document with a one-off Assembler.
func Capture(root Node, opts ...Option) (*Snapshot, error) {
	return NewAssembler(opts...).Capture(root)
}

// Capture walks the document once and returns the snapshot. A document or
// the html element is resolved to its body; any other node is walked as is.
func (a *Assembler) Capture(root Node) (*Snapshot, error) {
	if root == nil {
		return nil, ErrNilDocument
	}

	w := &walker{
		asm:   a,
		nodes: make(map[int]*Descriptor),
	}

	snap := &Snapshot{Map: w.nodes}
	if start := startNode(root); start != nil {
		if id, ok := w.visit(start, nil); ok {
			snap.Root = &id
		}
	}

	a.logger.Debug("snapshot captured",
		zap.Int("nodes", len(snap.Map)),
		zap.Bool("hasRoot", snap.Root != nil))
	return snap, nil
}

// startNode locates the body of a document, falling back to a frameset the
// way document.body does, or returns n when it is not a document or html
// element.
func startNode(n Node) Node {
	switch {
	case n.Kind() == KindDocument:
		for _, c := range n.Children() {
			if c.Kind() == KindElement && strings.EqualFold(c.TagName(), "html") {
				return startNode(c)
			}
		}
		return nil
	case n.Kind() == KindElement && strings.EqualFold(n.TagName(), "html"):
		for _, c := range n.Children() {
			if c.Kind() != KindElement {
				continue
			}
			if tag := c.TagName(); strings.EqualFold(tag, "body") || strings.EqualFold(tag, "frameset") {
				return c
			}
		}
		return nil
	}
	return n
}

// walker is the state of one capture: the identifier counter and the result
// map. It is never retained past Capture.
type walker struct {
	asm   *Assembler
	next  int
	nodes map[int]*Descriptor
}

// insert assigns the next identifier to a completed descriptor and stores
// it. Children are always inserted before their parent, so every child
// reference resolves and identifiers increase in insertion order.
func (w *walker) insert(d *Descriptor) int {
	d.Index = w.next
	w.next++
	w.nodes[d.Index] = d
	return d.Index
}

// visit processes one node. frame is the frame element that owns the
// current document, nil in the top-level document. It returns the
// identifier of the emitted descriptor, or false when the node is excluded.
func (w *walker) visit(n Node, frame Node) (int, bool) {
	switch n.Kind() {
	case KindText:
		return w.visitText(n)
	case KindElement:
		return w.visitElement(n, frame)
	default:
		return 0, false
	}
}

func (w *walker) visitText(n Node) (int, bool) {
	text := strings.TrimSpace(n.Data())
	if text == "" || !isTextVisible(n) {
		return 0, false
	}

	parent := parentElement(n)
	d := &Descriptor{
		Type:       TextNode,
		TagName:    strings.ToLower(parent.TagName()),
		Text:       text,
		XPath:      XPath(parent, w.asm.stopAtBoundary),
		IsVisible:  true,
		Attributes: attributeMap(parent),
	}
	if target := nearestInteractive(parent); target != nil {
		d.Selector = Selector(target)
	}

	return w.insert(d), true
}

func (w *walker) visitElement(n Node, frame Node) (int, bool) {
	tag := strings.ToLower(n.TagName())
	if isDeniedTag(tag) || !isStyleVisible(n) {
		return 0, false
	}

	rect := n.Rect()
	d := &Descriptor{
		Type:           ElementNode,
		TagName:        tag,
		Attributes:     attributeMap(n),
		XPath:          XPath(n, w.asm.stopAtBoundary),
		Selector:       Selector(n),
		IsVisible:      !rect.IsEmpty(),
		IsInteractive:  IsInteractive(n),
		PseudoElements: pseudoElements(n),
		Children:       []int{},
	}
	if w.asm.bounds && rect.HasArea() {
		d.Bounds = &rect
	}

	// 1. Shadow tree first
	if shadow := n.ShadowRoot(); shadow != nil {
		d.ShadowRoot = true
		w.visitChildren(d, shadow.Children(), frame)
	}

	// 2. Embedded document in place of ordinary children
	if frameTags[tag] {
		doc, err := n.ContentDocument()
		switch {
		case err != nil:
			w.asm.logger.Warn("embedded document unavailable",
				zap.String("xpath", d.XPath),
				zap.Bool("nested", frame != nil),
				zap.Error(err))
		case doc != nil:
			w.visitChildren(d, doc.Children(), n)
		}
	} else {
		// 3. Ordinary children
		w.visitChildren(d, n.Children(), frame)
	}

	return w.insert(d), true
}

func (w *walker) visitChildren(d *Descriptor, children []Node, frame Node) {
	for _, c := range children {
		if id, ok := w.visit(c, frame); ok {
			d.Children = append(d.Children, id)
		}
	}
}
