package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anxuanzi/domsnap-go/dom"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func blankImage(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	var err error
	if format == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100})
	}
	require.NoError(t, err)
	return buf.Bytes()
}

// testSnapshot is body > [button("Go"), div, a > i].
func testSnapshot() *dom.Snapshot {
	root := 6
	return &dom.Snapshot{
		Root: &root,
		Map: map[int]*dom.Descriptor{
			0: {Type: dom.TextNode, Index: 0, TagName: "button", Text: "Go", IsVisible: true},
			1: {Type: dom.ElementNode, Index: 1, TagName: "button", Children: []int{0}, IsVisible: true,
				IsInteractive: true, Bounds: &dom.Rect{X: 10, Y: 10, Width: 50, Height: 20}},
			2: {Type: dom.ElementNode, Index: 2, TagName: "div", Children: []int{}, IsVisible: true,
				Bounds: &dom.Rect{X: 100, Y: 50, Width: 60, Height: 30}},
			3: {Type: dom.ElementNode, Index: 3, TagName: "i", Children: []int{}, IsVisible: true,
				IsInteractive: true, Attributes: map[string]string{"role": "button"},
				Bounds: &dom.Rect{X: 72, Y: 12, Width: 10, Height: 10}},
			4: {Type: dom.ElementNode, Index: 4, TagName: "a", Children: []int{3}, IsVisible: true,
				IsInteractive: true, Bounds: &dom.Rect{X: 70, Y: 10, Width: 80, Height: 20}},
			5: {Type: dom.ElementNode, Index: 5, TagName: "span", Children: []int{}, IsVisible: false,
				IsInteractive: true},
			6: {Type: dom.ElementNode, Index: 6, TagName: "body", Children: []int{1, 2, 4, 5}, IsVisible: true},
		},
	}
}

func pixel(t *testing.T, data []byte, x, y int) color.RGBA {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestAnnotate_PNG(t *testing.T) {
	cfg := DefaultAnnotationConfig()
	out, err := Annotate(blankImage(t, "png"), testSnapshot(), cfg)
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	// Left edge of the button box.
	assert.Equal(t, cfg.ButtonColor, pixel(t, out, 10, 20))
	// Left edge of the link box.
	assert.Equal(t, cfg.LinkColor, pixel(t, out, 70, 20))
	// Non-interactive div is skipped.
	assert.Equal(t, white, pixel(t, out, 100, 65))
	// Icon inside the link is hidden.
	assert.Equal(t, white, pixel(t, out, 72, 20))
}

func TestAnnotate_AllElements(t *testing.T) {
	cfg := DefaultAnnotationConfig()
	cfg.InteractiveOnly = false
	cfg.HideContained = false
	cfg.ShowLabels = false

	out, err := Annotate(blankImage(t, "png"), testSnapshot(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.DefaultColor, pixel(t, out, 100, 65))
	assert.Equal(t, cfg.ButtonColor, pixel(t, out, 72, 20))
}

func TestAnnotate_KeepsJPEG(t *testing.T) {
	out, err := Annotate(blankImage(t, "jpeg"), testSnapshot(), DefaultAnnotationConfig())
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestAnnotate_NothingToDraw(t *testing.T) {
	in := blankImage(t, "png")

	out, err := Annotate(in, nil, DefaultAnnotationConfig())
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = Annotate(in, &dom.Snapshot{Map: map[int]*dom.Descriptor{}}, DefaultAnnotationConfig())
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Annotate([]byte("not an image"), testSnapshot(), DefaultAnnotationConfig())
	assert.Error(t, err)
}

func TestSelectTargets(t *testing.T) {
	snap := testSnapshot()
	cfg := DefaultAnnotationConfig()

	var ids []int
	for _, d := range selectTargets(snap, cfg) {
		ids = append(ids, d.Index)
	}
	assert.Equal(t, []int{1, 4}, ids)

	cfg.HideContained = false
	ids = nil
	for _, d := range selectTargets(snap, cfg) {
		ids = append(ids, d.Index)
	}
	assert.Equal(t, []int{1, 4, 3}, ids)
}

func TestContainedWithin(t *testing.T) {
	outer := dom.Rect{X: 0, Y: 0, Width: 100, Height: 100}

	assert.True(t, containedWithin(dom.Rect{X: 10, Y: 10, Width: 20, Height: 20}, outer, 0.99))
	assert.False(t, containedWithin(dom.Rect{X: 90, Y: 90, Width: 20, Height: 20}, outer, 0.99))
	assert.True(t, containedWithin(dom.Rect{X: 90, Y: 90, Width: 20, Height: 20}, outer, 0.25))
	assert.False(t, containedWithin(dom.Rect{X: 200, Y: 0, Width: 5, Height: 5}, outer, 0.1))
	assert.False(t, containedWithin(dom.Rect{X: 10, Y: 10}, outer, 0.1))
}

func TestElementColor(t *testing.T) {
	cfg := DefaultAnnotationConfig()

	tests := []struct {
		tag  string
		role string
		want color.RGBA
	}{
		{"a", "", cfg.LinkColor},
		{"button", "", cfg.ButtonColor},
		{"textarea", "", cfg.InputColor},
		{"div", "Tab", cfg.ButtonColor},
		{"span", "link", cfg.LinkColor},
		{"div", "searchbox", cfg.InputColor},
		{"div", "", cfg.DefaultColor},
	}

	for _, tt := range tests {
		d := &dom.Descriptor{TagName: tt.tag, Attributes: map[string]string{"role": tt.role}}
		assert.Equal(t, tt.want, elementColor(d, cfg), tt.tag+"/"+tt.role)
	}
}

func TestAnnotate_LabelStyles(t *testing.T) {
	in := blankImage(t, "png")

	// The button has no room above it, so its label sits just inside the
	// top edge, centered.
	labeled, err := AnnotateForLLM(in, testSnapshot())
	require.NoError(t, err)
	assert.NotEqual(t, white, pixel(t, labeled, 30, 13))

	// The button has text, so browser-use style leaves it unlabeled.
	unlabeled, err := AnnotateBrowserUseStyle(in, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, white, pixel(t, unlabeled, 30, 13))
}
