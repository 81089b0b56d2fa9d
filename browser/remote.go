package browser

import "github.com/anxuanzi/domsnap-go/dom"

// remoteNode is a node of a dumped page. It implements dom.Node,
// dom.Scripted, dom.ShadowHost, and dom.FrameOwned.
type remoteNode struct {
	raw      *dumpNode
	kind     dom.NodeKind
	parent   *remoteNode
	children []*remoteNode

	shadow   *remoteNode
	host     *remoteNode
	content  *remoteNode
	frame    *remoteNode
	frameErr error

	handlers  map[string]bool
	listeners map[string]bool
	inspected bool
}

var (
	_ dom.Node       = (*remoteNode)(nil)
	_ dom.Scripted   = (*remoteNode)(nil)
	_ dom.ShadowHost = (*remoteNode)(nil)
	_ dom.FrameOwned = (*remoteNode)(nil)
)

func (n *remoteNode) Kind() dom.NodeKind { return n.kind }
func (n *remoteNode) TagName() string    { return n.raw.Tag }
func (n *remoteNode) Data() string       { return n.raw.Data }
func (n *remoteNode) Rect() dom.Rect     { return n.raw.Rect }

func (n *remoteNode) Attributes() []dom.Attribute {
	if len(n.raw.Attrs) == 0 {
		return nil
	}
	out := make([]dom.Attribute, len(n.raw.Attrs))
	for i, a := range n.raw.Attrs {
		out[i] = dom.Attribute{Name: a[0], Value: a[1]}
	}
	return out
}

func (n *remoteNode) Parent() dom.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *remoteNode) Children() []dom.Node {
	out := make([]dom.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *remoteNode) Style(pseudo string) (dom.Style, bool) {
	if n.kind != dom.KindElement {
		return nil, false
	}
	switch pseudo {
	case dom.PseudoNone:
		return n.raw.Style, n.raw.Style != nil
	case dom.PseudoBefore:
		return n.raw.Before, n.raw.Before != nil
	case dom.PseudoAfter:
		return n.raw.After, n.raw.After != nil
	}
	return nil, false
}

func (n *remoteNode) ShadowRoot() dom.Node {
	if n.shadow == nil {
		return nil
	}
	return n.shadow
}

func (n *remoteNode) ContentDocument() (dom.Node, error) {
	if n.frameErr != nil {
		return nil, n.frameErr
	}
	if n.content == nil {
		return nil, nil
	}
	return n.content, nil
}

func (n *remoteNode) Host() dom.Node {
	if n.host == nil {
		return nil
	}
	return n.host
}

func (n *remoteNode) FrameElement() dom.Node {
	if n.frame == nil {
		return nil
	}
	return n.frame
}

// EventListeners reports the listener types read through the debugger.
// Without listener introspection, or when reading failed for this element,
// it reports them as unavailable.
func (n *remoteNode) EventListeners() (map[string]bool, bool) {
	return n.listeners, n.inspected
}

func (n *remoteNode) HandlerProperty(event string) bool {
	return n.handlers[event]
}

func (n *remoteNode) Draggable() bool {
	return n.raw.Draggable
}

func (n *remoteNode) attr(name string) (string, bool) {
	for _, a := range n.raw.Attrs {
		if a[0] == name {
			return a[1], true
		}
	}
	return "", false
}
