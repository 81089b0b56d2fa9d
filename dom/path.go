package dom

import (
	"fmt"
	"sort"
	"strings"
)

// XPath builds the structural path of an element: one segment per ancestor,
// root to leaf, with a 1-based same-tag position when a preceding sibling
// shares the tag. With stopAtBoundary the walk ends at a shadow root or an
// embedded document; otherwise it continues through the host or frame element.
func XPath(el Node, stopAtBoundary bool) string {
	var segments []string

	n := el
	for n != nil && n.Kind() == KindElement {
		tag := strings.ToLower(n.TagName())
		if idx := sameTagIndex(n, tag); idx > 0 {
			segments = append(segments, fmt.Sprintf("%s[%d]", tag, idx+1))
		} else {
			segments = append(segments, tag)
		}

		next := n.Parent()
		if owner := boundaryOwner(next); owner != nil {
			if stopAtBoundary {
				break
			}
			next = owner
		}
		n = next
	}

	reverse(segments)
	return strings.Join(segments, "/")
}

// sameTagIndex counts preceding element siblings with the same tag.
func sameTagIndex(n Node, tag string) int {
	parent := n.Parent()
	if parent == nil {
		return 0
	}

	count := 0
	for _, sib := range parent.Children() {
		if sib == n {
			break
		}
		if sib.Kind() == KindElement && strings.ToLower(sib.TagName()) == tag {
			count++
		}
	}
	return count
}

// boundaryOwner returns the host of a shadow root or the frame element of an
// embedded document, or nil when parent is not such a boundary.
func boundaryOwner(parent Node) Node {
	if parent == nil {
		return nil
	}
	switch parent.Kind() {
	case KindFragment:
		if h, ok := parent.(ShadowHost); ok {
			return h.Host()
		}
	case KindDocument:
		if f, ok := parent.(FrameOwned); ok {
			return f.FrameElement()
		}
	}
	return nil
}

// Selector builds a best-effort CSS selector for an element. An id ends the
// walk; otherwise each level contributes its tag, sorted classes, and an
// nth-child position when the parent has more than one element child.
func Selector(el Node) string {
	var segments []string

	for n := el; n != nil && n.Kind() == KindElement; n = parentElement(n) {
		if id, ok := Attr(n, "id"); ok && id != "" {
			segments = append(segments, "#"+CSSEscape(id))
			break
		}

		var sb strings.Builder
		sb.WriteString(strings.ToLower(n.TagName()))
		for _, class := range classList(n) {
			sb.WriteString(".")
			sb.WriteString(CSSEscape(class))
		}

		if parent := n.Parent(); parent != nil {
			siblings := elementChildren(parent)
			if len(siblings) > 1 {
				for i, sib := range siblings {
					if sib == n {
						fmt.Fprintf(&sb, ":nth-child(%d)", i+1)
						break
					}
				}
			}
		}
		segments = append(segments, sb.String())
	}

	reverse(segments)
	return strings.Join(segments, " > ")
}

// classList returns the deduplicated, sorted class names of an element.
func classList(n Node) []string {
	raw, ok := Attr(n, "class")
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var classes []string
	for _, c := range strings.Fields(raw) {
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}
	sort.Strings(classes)
	return classes
}

// CSSEscape escapes an identifier for use in a CSS selector, following the
// CSSOM serialization rules for identifiers.
func CSSEscape(ident string) string {
	runes := []rune(ident)
	var sb strings.Builder

	for i, r := range runes {
		switch {
		case r == 0:
			sb.WriteRune('�')
		case (r >= 0x1 && r <= 0x1f) || r == 0x7f:
			fmt.Fprintf(&sb, "\\%x ", r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&sb, "\\%x ", r)
		case i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			fmt.Fprintf(&sb, "\\%x ", r)
		case i == 0 && r == '-' && len(runes) == 1:
			sb.WriteString("\\-")
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			sb.WriteRune(r)
		default:
			sb.WriteRune('\\')
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
