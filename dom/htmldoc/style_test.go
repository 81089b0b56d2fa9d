package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anxuanzi/domsnap-go/dom"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in     string
		want   compound
		pseudo string
		ok     bool
	}{
		{"div", compound{tag: "div"}, dom.PseudoNone, true},
		{"DIV.card", compound{tag: "div", classes: []string{"card"}}, dom.PseudoNone, true},
		{"#main.a.b", compound{id: "main", classes: []string{"a", "b"}}, dom.PseudoNone, true},
		{"*", compound{tag: "*"}, dom.PseudoNone, true},
		{".icon::before", compound{classes: []string{"icon"}}, dom.PseudoBefore, true},
		{"a:after", compound{tag: "a"}, dom.PseudoAfter, true},
		{"div p", compound{}, "", false},
		{"ul > li", compound{}, "", false},
		{"a:hover", compound{}, "", false},
		{"input[type=text]", compound{}, "", false},
		{"div..x", compound{}, "", false},
		{`#a\.b`, compound{id: "a.b"}, dom.PseudoNone, true},
		{`#\31 23.w-1\/2`, compound{id: "123", classes: []string{"w-1/2"}}, dom.PseudoNone, true},
		{`.a\:b::before`, compound{classes: []string{"a:b"}}, dom.PseudoBefore, true},
		{`#x\ y`, compound{id: "x y"}, dom.PseudoNone, true},
		{`a\.b c`, compound{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, pseudo, ok := parseSelector(tt.in)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.pseudo, pseudo)
		})
	}
}

func TestSplitRules(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`a { x: 1 } b { y: 2 }`, []string{`a { x: 1 }`, `b { y: 2 }`}},
		{`@import "x.css"; p { }`, []string{`@import "x.css";`, `p { }`}},
		{`.a { &:hover { c: r } } p { }`, []string{`.a { &:hover { c: r } }`, `p { }`}},
		{`a { } } b { }`, []string{`a { }`, `}`, `b { }`}},
		{`a { content: "}" } b { }`, []string{`a { content: "}" }`, `b { }`}},
		{`/* { */ a { } /* open`, []string{`/* { */ a { }`, `/* open`}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, splitRules(tt.in), tt.in)
	}
}

func TestSpecificity(t *testing.T) {
	assert.Equal(t, 0, compound{tag: "*"}.specificity())
	assert.Equal(t, 1, compound{tag: "div"}.specificity())
	assert.Equal(t, 21, compound{tag: "div", classes: []string{"a", "b"}}.specificity())
	assert.Equal(t, 110, compound{id: "x", classes: []string{"a"}}.specificity())
}

func TestComputeStyle_Cascade(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		display string
	}{
		{
			name:    "id beats tag",
			src:     `<style>div { display: none } #b { display: block }</style><div id="b">y</div>`,
			display: "block",
		},
		{
			name:    "important beats id",
			src:     `<style>#a { display: block } div { display: none !important }</style><div id="a">x</div>`,
			display: "none",
		},
		{
			name:    "later rule wins on tie",
			src:     `<style>.a { display: flex } .b { display: grid }</style><div class="a b">x</div>`,
			display: "grid",
		},
		{
			name:    "inline beats sheet",
			src:     `<style>#c { display: none }</style><div id="c" style="display: block">x</div>`,
			display: "block",
		},
		{
			name:    "hidden attribute",
			src:     `<div hidden>x</div>`,
			display: "none",
		},
		{
			name:    "default",
			src:     `<div>x</div>`,
			display: "inline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(tt.src)
			require.NoError(t, err)
			n, err := doc.Locate("html/body/div")
			require.NoError(t, err)
			require.NotNil(t, n)

			style, ok := n.Style(dom.PseudoNone)
			require.True(t, ok)
			assert.Equal(t, tt.display, style.Get("display"))
		})
	}
}

func TestComputeStyle_Inheritance(t *testing.T) {
	doc, err := ParseString(`<div style="visibility: hidden; opacity: 0.5"><p>a</p><span style="visibility: inherit">b</span><em style="visibility: visible">c</em></div>`)
	require.NoError(t, err)

	for xpath, want := range map[string]string{
		"html/body/div/p":    "hidden",
		"html/body/div/span": "hidden",
		"html/body/div/em":   "visible",
	} {
		n, err := doc.Locate(xpath)
		require.NoError(t, err)
		style, _ := n.Style(dom.PseudoNone)
		assert.Equal(t, want, style.Get("visibility"), xpath)
		assert.Equal(t, "1", style.Get("opacity"), xpath)
	}
}

func TestRect(t *testing.T) {
	doc, err := ParseString(`<div style="width: 120px; height: 30.5px">a</div><div style="width: 50%">b</div><div style="display:none"><p>c</p></div>`)
	require.NoError(t, err)

	sized, _ := doc.Locate("html/body/div")
	assert.Equal(t, dom.Rect{Width: 120, Height: 30.5}, sized.Rect())

	relative, _ := doc.Locate("html/body/div[2]")
	assert.Equal(t, dom.Rect{Width: 1, Height: 1}, relative.Rect())

	nested, _ := doc.Locate("html/body/div[3]/p")
	assert.True(t, nested.Rect().IsEmpty())
	assert.True(t, nested.Children()[0].Rect().IsEmpty())
}

func TestPxLength(t *testing.T) {
	for in, want := range map[string]float64{"0": 0, "12px": 12, " 3.5px ": 3.5} {
		got, ok := pxLength(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "auto", "2em", "50%"} {
		_, ok := pxLength(in)
		assert.False(t, ok, in)
	}
}
