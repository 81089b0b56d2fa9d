package dom

import (
	"strconv"
	"strings"
)

// deniedTags are never emitted, and nothing below them is visited.
var deniedTags = map[string]bool{
	"svg":      true,
	"script":   true,
	"style":    true,
	"link":     true,
	"meta":     true,
	"noscript": true,
	"template": true,
}

// isDeniedTag reports whether an element tag is excluded from snapshots.
func isDeniedTag(tagName string) bool {
	return deniedTags[tagName]
}

// isStyleVisible gates emission of an element. Elements hidden through
// display or visibility are still emitted when a pseudo-element generates
// content.
func isStyleVisible(n Node) bool {
	style, _ := n.Style(PseudoNone)
	hidden := style.Get("display") == "none" || style.Get("visibility") == "hidden"
	if !hidden {
		return true
	}
	return hasGeneratedContent(n)
}

// hasGeneratedContent reports non-"none" ::before or ::after content.
func hasGeneratedContent(n Node) bool {
	for _, pseudo := range []string{PseudoBefore, PseudoAfter} {
		if style, ok := n.Style(pseudo); ok && generatesContent(style.Get("content")) {
			return true
		}
	}
	return false
}

// isTextVisible gates emission of a text node: its box must have area and
// its parent must pass checkVisible.
func isTextVisible(text Node) bool {
	if !text.Rect().HasArea() {
		return false
	}
	parent := parentElement(text)
	if parent == nil {
		return false
	}
	return checkVisible(parent)
}

// checkVisible reports whether an element is rendered: neither it nor an
// ancestor is display:none or fully transparent, and its own computed
// visibility is visible.
func checkVisible(el Node) bool {
	style, _ := el.Style(PseudoNone)
	switch style.Get("visibility") {
	case "hidden", "collapse":
		return false
	}

	for n := el; n != nil; n = composedParent(n) {
		if n.Kind() != KindElement {
			continue
		}
		s, _ := n.Style(PseudoNone)
		if s.Get("display") == "none" || isTransparent(s.Get("opacity")) {
			return false
		}
	}
	return true
}

// composedParent steps to the parent, crossing from a shadow root to its
// host when the provider exposes it.
func composedParent(n Node) Node {
	if p := n.Parent(); p != nil {
		return p
	}
	if h, ok := n.(ShadowHost); ok {
		return h.Host()
	}
	return nil
}

func isTransparent(opacity string) bool {
	opacity = strings.TrimSpace(opacity)
	if opacity == "" {
		return false
	}
	v, err := strconv.ParseFloat(opacity, 64)
	if err != nil {
		return false
	}
	return v <= 0
}
