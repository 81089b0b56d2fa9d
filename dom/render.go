package dom

import (
	"fmt"
	"strings"
	"unicode"
)

// renderedStateAttributes are appended to rendered lines and pushed down to
// the first descendant with content.
var renderedStateAttributes = []string{"aria-expanded", "aria-haspopup", "focused", "selected"}

// Rendering is a compact text listing of a snapshot for agent prompts.
type Rendering struct {
	// Text holds one line per rendered node: "[n] tag 'content' attrs".
	Text string

	// Refs maps the line number n to the descriptor identifier.
	Refs map[int]int
}

// Render lists visible nodes whose content carries a letter or digit.
// Levels that print nothing do not add indentation.
func Render(s *Snapshot) Rendering {
	out := Rendering{Refs: make(map[int]int)}
	if s == nil || s.Root == nil {
		return out
	}

	// Inherited state attributes live outside the snapshot so rendering
	// never mutates it.
	inherited := make(map[int]map[string]string)

	var sb strings.Builder
	effective := make(map[int]int)
	lastDepth := -1
	num := 0

	s.Walk(func(d *Descriptor, depth int) bool {
		num++
		content := descriptorContent(d)
		attrs := mergedStateAttributes(d, inherited[d.Index])

		if !hasAlnum(content) && len(attrs) > 0 {
			s.pushStateAttributes(d, attrs, inherited)
		}

		if hasAlnum(content) && d.IsVisible {
			if _, ok := effective[depth]; !ok {
				prev, seen := effective[lastDepth]
				if !seen {
					prev = -1
				}
				effective[depth] = prev + 1
				lastDepth = depth
			}

			fmt.Fprintf(&sb, "%s[%d] %s '%s'", strings.Repeat("  ", effective[depth]), num, renderTag(d), content)
			if rendered := formatStateAttributes(attrs); rendered != "" {
				sb.WriteString(" ")
				sb.WriteString(rendered)
			}
			sb.WriteString("\n")
			out.Refs[num] = d.Index
		}
		return true
	})

	out.Text = sb.String()
	return out
}

// descriptorContent returns the text of a text node, or the pseudo-element
// content of an element.
func descriptorContent(d *Descriptor) string {
	if d.Type == TextNode {
		return cleanContent(d.Text)
	}
	if d.PseudoElements == nil {
		return ""
	}

	var before, after string
	if d.PseudoElements.Before != nil {
		before = pseudoText(d.PseudoElements.Before.Content)
	}
	if d.PseudoElements.After != nil {
		after = pseudoText(d.PseudoElements.After.Content)
	}
	return cleanContent(before + after)
}

func pseudoText(content string) string {
	content = strings.Trim(content, `"`)
	return strings.ReplaceAll(content, "-moz-alt-content", "")
}

func cleanContent(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\t", "")
	return strings.TrimSpace(s)
}

func renderTag(d *Descriptor) string {
	if d.Type == TextNode && d.TagName == "" {
		return "statictext"
	}
	return d.TagName
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func mergedStateAttributes(d *Descriptor, inherited map[string]string) map[string]string {
	out := make(map[string]string)
	for _, name := range renderedStateAttributes {
		if v, ok := d.Attributes[name]; ok && v != "" {
			out[name] = v
		} else if v, ok := inherited[name]; ok && v != "" {
			out[name] = v
		}
	}
	return out
}

// pushStateAttributes hands state attributes of a content-less node to its
// first descendant, in document order, that has content.
func (s *Snapshot) pushStateAttributes(d *Descriptor, attrs map[string]string, inherited map[int]map[string]string) {
	var target *Descriptor
	var find func(parent *Descriptor) bool
	find = func(parent *Descriptor) bool {
		for _, id := range parent.Children {
			child, ok := s.Map[id]
			if !ok {
				continue
			}
			if hasAlnum(descriptorContent(child)) {
				target = child
				return true
			}
			if find(child) {
				return true
			}
		}
		return false
	}
	if !find(d) {
		return
	}

	dst := inherited[target.Index]
	if dst == nil {
		dst = make(map[string]string)
		inherited[target.Index] = dst
	}
	for k, v := range attrs {
		dst[k] = v
	}
}

func formatStateAttributes(attrs map[string]string) string {
	var parts []string
	for _, name := range renderedStateAttributes {
		if v, ok := attrs[name]; ok {
			short := name[strings.LastIndex(name, "-")+1:]
			parts = append(parts, short+": "+v)
		}
	}
	return strings.Join(parts, " ")
}
