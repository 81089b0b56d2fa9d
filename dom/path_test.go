package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPath_SameTagSiblings(t *testing.T) {
	first := newElement("DIV")
	second := newElement("DIV")
	third := newElement("DIV")
	page(newElement("SPAN"), first, newElement("P"), second, third)

	assert.Equal(t, "html/body/div", XPath(first, true))
	assert.Equal(t, "html/body/div[2]", XPath(second, true))
	assert.Equal(t, "html/body/div[3]", XPath(third, true))
}

func TestXPath_Detached(t *testing.T) {
	n := newElement("Section", newElement("A"))
	assert.Equal(t, "section/a", XPath(n.children[0], true))
}

func TestSelector(t *testing.T) {
	t.Run("id halts the walk", func(t *testing.T) {
		target := newElement("SPAN").attr("id", "a.b")
		page(newElement("DIV", target).attr("id", "outer"))

		assert.Equal(t, `#a\.b`, Selector(target))
	})

	t.Run("empty id is ignored", func(t *testing.T) {
		target := newElement("SPAN").attr("id", "")
		page(newElement("DIV", target).attr("id", "outer"))

		assert.Equal(t, "#outer > span", Selector(target))
	})

	t.Run("classes are sorted and deduplicated", func(t *testing.T) {
		target := newElement("DIV").attr("class", " card  active card ")
		page(target)

		assert.Equal(t, "html > body:nth-child(2) > div.active.card", Selector(target))
	})

	t.Run("position among element siblings", func(t *testing.T) {
		target := newElement("LI")
		_, body := page(newElement("UL", newElement("LI"), target, newElement("LI")))
		body.append(newText("trailing"))

		assert.Equal(t, "html > body:nth-child(2) > ul > li:nth-child(2)", Selector(target))
	})

	t.Run("escaped classes", func(t *testing.T) {
		target := newElement("I").attr("class", "2col w-1/2")
		page(newElement("P", target).attr("id", "x"))

		assert.Equal(t, `#x > i.\32 col.w-1\/2`, Selector(target))
	})
}

func TestCSSEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a.b", `a\.b`},
		{"1abc", `\31 abc`},
		{"-1", `-\31 `},
		{"-", `\-`},
		{"-a", "-a"},
		{"_x-y", "_x-y"},
		{"a b", `a\ b`},
		{"a:b[c]", `a\:b\[c\]`},
		{"café", "café"},
		{"a\x00", "a�"},
		{"\x7f", `\7f `},
		{"tab\t", `tab\9 `},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CSSEscape(tt.in))
		})
	}
}
