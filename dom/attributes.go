package dom

// attributeMap copies an element's attributes into a name/value map. Nodes
// without attributes yield an empty, non-nil map.
func attributeMap(n Node) map[string]string {
	if n == nil {
		return map[string]string{}
	}
	attrs := n.Attributes()
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Name] = a.Value
	}
	return out
}

// pseudoStyleProperties are copied into each captured pseudo-element style.
var pseudoStyleProperties = []string{
	"content",
	"display",
	"visibility",
	"opacity",
	"position",
	"color",
	"background-color",
	"background-image",
	"font-family",
	"font-size",
}

// pseudoContent returns the generated content of a pseudo-element, or nil
// when it generates nothing.
func pseudoContent(n Node, pseudo string) *PseudoContent {
	style, ok := n.Style(pseudo)
	if !ok {
		return nil
	}
	content := style.Get("content")
	if !generatesContent(content) {
		return nil
	}

	captured := make(Style, len(pseudoStyleProperties))
	for _, prop := range pseudoStyleProperties {
		if v := style.Get(prop); v != "" {
			captured[prop] = v
		}
	}
	return &PseudoContent{Content: content, Style: captured}
}

// pseudoElements captures ::before and ::after, or returns nil when
// neither generates content.
func pseudoElements(n Node) *PseudoElements {
	before := pseudoContent(n, PseudoBefore)
	after := pseudoContent(n, PseudoAfter)
	if before == nil && after == nil {
		return nil
	}
	return &PseudoElements{Before: before, After: after}
}

func generatesContent(content string) bool {
	switch content {
	case "", "none", "normal":
		return false
	}
	return true
}
