package htmldoc

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"github.com/anxuanzi/domsnap-go/dom"
)

// uaHiddenTags are display:none in the user-agent stylesheet.
var uaHiddenTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "noscript": true,
	"base": true, "datalist": true,
}

// inheritedProperties are copied from the parent computed style.
var inheritedProperties = []string{"visibility", "color", "font-family", "font-size", "cursor"}

// compound is a simple compound selector: tag, id, and classes.
type compound struct {
	tag     string // "" or "*" matches any
	id      string
	classes []string
}

func (c compound) specificity() int {
	s := len(c.classes) * 10
	if c.id != "" {
		s += 100
	}
	if c.tag != "" && c.tag != "*" {
		s++
	}
	return s
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && !strings.EqualFold(c.tag, n.Data) {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// rule is one selector of a stylesheet rule with its declarations.
type rule struct {
	selector     compound
	pseudo       string
	order        int
	declarations []*css.Declaration
}

// stylesheet is the ordered set of author rules of one document.
type stylesheet struct {
	rules []rule
}

// parseStylesheet parses CSS text and appends the supported rules. Rules
// with complex selectors are skipped. When the text as a whole does not
// parse, each top-level rule is parsed on its own and unreadable rules are
// dropped, as a browser would. It returns the number of dropped rules.
func (s *stylesheet) parseStylesheet(text string) int {
	if sheet, err := parser.Parse(text); err == nil {
		s.addRules(sheet.Rules)
		return 0
	}

	dropped := 0
	for _, chunk := range splitRules(text) {
		sheet, err := parser.Parse(chunk)
		if err != nil {
			dropped++
			continue
		}
		s.addRules(sheet.Rules)
	}
	return dropped
}

func (s *stylesheet) addRules(rules []*css.Rule) {
	for _, r := range rules {
		if r.Kind != css.QualifiedRule {
			continue
		}
		for _, sel := range r.Selectors {
			c, pseudo, ok := parseSelector(sel)
			if !ok {
				continue
			}
			s.rules = append(s.rules, rule{
				selector:     c,
				pseudo:       pseudo,
				order:        len(s.rules),
				declarations: r.Declarations,
			})
		}
	}
}

// splitRules cuts CSS text into top-level rules: a block closed at depth
// zero, or a statement ended by ';' at depth zero. Strings and comments are
// skipped over. A stray '}' ends the current chunk.
func splitRules(text string) []string {
	var chunks []string
	depth, start := 0, 0
	emit := func(end int) {
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '\\':
			i++
		case '"', '\'':
			for i++; i < len(text) && text[i] != c && text[i] != '\n'; i++ {
				if text[i] == '\\' {
					i++
				}
			}
		case '/':
			if i+1 < len(text) && text[i+1] == '*' {
				end := strings.Index(text[i+2:], "*/")
				if end < 0 {
					i = len(text)
					break
				}
				i += end + 3
			}
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				emit(i + 1)
			}
		case ';':
			if depth == 0 {
				emit(i + 1)
			}
		}
	}
	if start < len(text) {
		emit(len(text))
	}
	return chunks
}

// parseSelector accepts compound selectors such as "div.card#main::before".
// Identifiers may carry CSS escapes, e.g. "#a\.b" or "#\31 23".
func parseSelector(sel string) (compound, string, bool) {
	sel = strings.TrimSpace(sel)
	pseudo := dom.PseudoNone
	for _, suffix := range []struct{ text, pseudo string }{
		{"::before", dom.PseudoBefore},
		{"::after", dom.PseudoAfter},
		{":before", dom.PseudoBefore},
		{":after", dom.PseudoAfter},
	} {
		if strings.HasSuffix(sel, suffix.text) {
			sel = strings.TrimSuffix(sel, suffix.text)
			pseudo = suffix.pseudo
			break
		}
	}

	if sel == "" || hasUnescaped(sel, " >+~[]:(),") {
		return compound{}, "", false
	}

	var c compound
	i := 0
	readIdent := func() string {
		var sb strings.Builder
		for i < len(sel) && sel[i] != '.' && sel[i] != '#' {
			if sel[i] != '\\' {
				sb.WriteByte(sel[i])
				i++
				continue
			}
			r, n := unescape(sel[i:])
			sb.WriteRune(r)
			i += n
		}
		return sb.String()
	}

	if sel[0] != '.' && sel[0] != '#' {
		c.tag = strings.ToLower(readIdent())
	}
	for i < len(sel) {
		marker := sel[i]
		i++
		ident := readIdent()
		if ident == "" {
			return compound{}, "", false
		}
		if marker == '#' {
			c.id = ident
		} else {
			c.classes = append(c.classes, ident)
		}
	}
	return c, pseudo, true
}

// hasUnescaped reports whether sel contains one of chars outside a CSS
// escape sequence.
func hasUnescaped(sel, chars string) bool {
	for i := 0; i < len(sel); {
		if sel[i] == '\\' {
			_, n := unescape(sel[i:])
			i += n
			continue
		}
		if strings.IndexByte(chars, sel[i]) >= 0 {
			return true
		}
		i++
	}
	return false
}

// unescape decodes the CSS escape at the start of s, which begins with a
// backslash: up to six hex digits plus one optional whitespace, or a single
// literal character. It returns the rune and the bytes consumed.
func unescape(s string) (rune, int) {
	if len(s) < 2 {
		return utf8.RuneError, len(s)
	}
	n := 1
	for n < len(s) && n <= 6 && isHex(s[n]) {
		n++
	}
	if n == 1 {
		r, size := utf8.DecodeRuneInString(s[1:])
		return r, 1 + size
	}

	v, _ := strconv.ParseUint(s[1:n], 16, 32)
	r := rune(v)
	if r == 0 || r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
		r = utf8.RuneError
	}
	if n < len(s) && (s[n] == ' ' || s[n] == '\t' || s[n] == '\n') {
		n++
	}
	return r, n
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// declaration is a property value with its cascade weight.
type declaration struct {
	property    string
	value       string
	important   bool
	specificity int
	order       int
}

// computeStyle cascades UA defaults, matching rules, and the inline style
// attribute for an element or one of its pseudo-elements.
func (s *stylesheet) computeStyle(n *html.Node, pseudo string, parent dom.Style) dom.Style {
	style := dom.Style{
		"display":    "inline",
		"visibility": "visible",
		"opacity":    "1",
	}
	if pseudo != dom.PseudoNone {
		style["content"] = "none"
	}
	for _, prop := range inheritedProperties {
		if v := parent.Get(prop); v != "" {
			style[prop] = v
		}
	}

	if pseudo == dom.PseudoNone {
		if uaHiddenTags[strings.ToLower(n.Data)] || hasAttr(n, "hidden") {
			style["display"] = "none"
		}
	}

	var decls []declaration
	for _, r := range s.rules {
		if r.pseudo != pseudo || !r.selector.matches(n) {
			continue
		}
		for _, d := range r.declarations {
			decls = append(decls, declaration{
				property:    strings.ToLower(d.Property),
				value:       strings.TrimSpace(d.Value),
				important:   d.Important,
				specificity: r.selector.specificity(),
				order:       r.order,
			})
		}
	}

	if pseudo == dom.PseudoNone {
		if inline := attr(n, "style"); inline != "" {
			if parsed, err := parser.ParseDeclarations(inline); err == nil {
				for _, d := range parsed {
					decls = append(decls, declaration{
						property:    strings.ToLower(d.Property),
						value:       strings.TrimSpace(d.Value),
						important:   d.Important,
						specificity: 1000,
						order:       len(s.rules),
					})
				}
			}
		}
	}

	sort.SliceStable(decls, func(i, j int) bool {
		a, b := decls[i], decls[j]
		if a.important != b.important {
			return !a.important
		}
		if a.specificity != b.specificity {
			return a.specificity < b.specificity
		}
		return a.order < b.order
	})

	for _, d := range decls {
		if d.value == "inherit" {
			if v := parent.Get(d.property); v != "" {
				style[d.property] = v
			}
			continue
		}
		style[d.property] = d.value
	}
	return style
}

// pxLength parses a declared length such as "0", "12px", or "3.5px".
// ok is false for any other unit or keyword.
func pxLength(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	value = strings.TrimSuffix(value, "px")
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
