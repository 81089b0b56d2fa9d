package browser

import (
	"encoding/json"
	"fmt"

	"github.com/anxuanzi/domsnap-go/dom"
)

// dumpJS serializes the rendered document in one pass: node kinds, tags,
// attributes, computed and pseudo-element styles, boxes (offset into the
// top-level viewport for frame content), shadow roots, frame documents, and
// legacy handler properties. Frames whose document cannot be read carry
// the failure message instead of content. With collect set, each element
// records its position in window.__domsnapNodes so its listeners can be
// read afterwards.
const dumpJS = `(collect) => {
  const PSEUDO_PROPS = ["content", "display", "visibility", "opacity", "position",
    "color", "background-color", "background-image", "font-family", "font-size"];
  const STYLE_PROPS = ["display", "visibility", "opacity"];
  const HANDLERS = ["click", "mousedown", "mouseup", "touchstart", "touchend",
    "keydown", "keyup", "focus", "blur"];

  const pick = (style, props) => {
    const out = {};
    for (const p of props) out[p] = style.getPropertyValue(p);
    return out;
  };
  const box = (r, off) => ({x: r.x + off.x, y: r.y + off.y, width: r.width, height: r.height});
  const kids = (parent, off) => Array.from(parent.childNodes, (c) => dump(c, off));
  const nodes = [];

  function dump(node, off) {
    if (node.nodeType === Node.TEXT_NODE) {
      const range = node.ownerDocument.createRange();
      range.selectNodeContents(node);
      return {k: "text", d: node.data, r: box(range.getBoundingClientRect(), off)};
    }
    if (node.nodeType !== Node.ELEMENT_NODE) {
      return {k: "other"};
    }

    const win = node.ownerDocument.defaultView;
    const out = {
      k: "element",
      t: node.tagName,
      a: Array.from(node.attributes, (a) => [a.name, a.value]),
      s: pick(win.getComputedStyle(node), STYLE_PROPS),
      b: pick(win.getComputedStyle(node, "::before"), PSEUDO_PROPS),
      f: pick(win.getComputedStyle(node, "::after"), PSEUDO_PROPS),
      r: box(node.getBoundingClientRect(), off),
      h: HANDLERS.filter((ev) => typeof node["on" + ev] === "function"),
      g: node.draggable === true,
      c: [],
    };
    if (collect) {
      out.i = nodes.length;
      nodes.push(node);
    }

    if (node.shadowRoot) {
      out.sr = kids(node.shadowRoot, off);
    }

    const tag = node.tagName.toLowerCase();
    if (tag === "iframe" || tag === "frame") {
      try {
        const doc = node.contentDocument;
        if (!doc) throw new Error("content document is not accessible");
        const r = node.getBoundingClientRect();
        out.fd = {k: "document", c: kids(doc, {x: off.x + r.x, y: off.y + r.y})};
      } catch (e) {
        out.fe = String((e && e.message) || e);
      }
      return out;
    }

    out.c = kids(node, off);
    return out;
  }

  const result = JSON.stringify({k: "document", c: kids(document, {x: 0, y: 0})});
  if (collect) window.__domsnapNodes = nodes;
  return result;
}`

// dumpNode is one node of the in-page dump.
type dumpNode struct {
	Kind      string            `json:"k"`
	Tag       string            `json:"t"`
	Data      string            `json:"d"`
	Attrs     [][2]string       `json:"a"`
	Style     map[string]string `json:"s"`
	Before    map[string]string `json:"b"`
	After     map[string]string `json:"f"`
	Rect      dom.Rect          `json:"r"`
	Handlers  []string          `json:"h"`
	Draggable bool              `json:"g"`
	Children  []*dumpNode       `json:"c"`
	Shadow    []*dumpNode       `json:"sr"`
	Frame     *dumpNode         `json:"fd"`
	FrameErr  string            `json:"fe"`
	Index     *int              `json:"i"`
}

// decodeDocument builds a read-only node tree from dump output.
func decodeDocument(data []byte) (*remoteNode, error) {
	var root dumpNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode document dump: %w", err)
	}
	if root.Kind != "document" {
		return nil, fmt.Errorf("unexpected dump root kind %q", root.Kind)
	}
	return build(&root, nil), nil
}

func build(dn *dumpNode, parent *remoteNode) *remoteNode {
	n := &remoteNode{raw: dn, parent: parent}

	switch dn.Kind {
	case "document":
		n.kind = dom.KindDocument
	case "element":
		n.kind = dom.KindElement
	case "text":
		n.kind = dom.KindText
	default:
		n.kind = dom.KindOther
	}

	if len(dn.Handlers) > 0 {
		n.handlers = make(map[string]bool, len(dn.Handlers))
		for _, ev := range dn.Handlers {
			n.handlers[ev] = true
		}
	}

	if dn.Shadow != nil {
		n.shadow = &remoteNode{kind: dom.KindFragment, raw: &dumpNode{Kind: "fragment"}, host: n}
		n.shadow.children = buildAll(dn.Shadow, n.shadow)
	}

	switch {
	case dn.FrameErr != "":
		src, _ := n.attr("src")
		n.frameErr = fmt.Errorf("browser: frame %q: %s: %w", src, dn.FrameErr, dom.ErrFrameInaccessible)
	case dn.Frame != nil:
		n.content = build(dn.Frame, nil)
		n.content.frame = n
	}

	n.children = buildAll(dn.Children, n)
	return n
}

func buildAll(list []*dumpNode, parent *remoteNode) []*remoteNode {
	out := make([]*remoteNode, 0, len(list))
	for _, dn := range list {
		if dn == nil {
			continue
		}
		out = append(out, build(dn, parent))
	}
	return out
}
