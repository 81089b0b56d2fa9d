// Package screenshot draws snapshot descriptors over page screenshots.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/anxuanzi/domsnap-go/dom"
)

// AnnotationConfig configures how annotations are drawn.
type AnnotationConfig struct {
	// BorderWidth is the width of bounding box borders in pixels.
	BorderWidth int

	// FontPath is a TrueType font for labels. Empty uses the built-in
	// 7x13 bitmap face.
	FontPath string

	// FontSize is the label font size in points when FontPath is set.
	FontSize float64

	// ShowLabels determines whether to show identifier labels.
	ShowLabels bool

	// ShowLabelsOnlyForUnlabeled shows labels only for elements without text.
	ShowLabelsOnlyForUnlabeled bool

	// InteractiveOnly limits annotations to interactive elements.
	InteractiveOnly bool

	// HideContained skips elements whose box lies almost entirely inside a
	// larger interactive element's box, such as icons inside buttons.
	HideContained bool

	// ContainmentThreshold is the covered fraction used by HideContained.
	ContainmentThreshold float64

	// Colors for different element types.
	LinkColor      color.RGBA
	ButtonColor    color.RGBA
	InputColor     color.RGBA
	DefaultColor   color.RGBA
	LabelBgColor   color.RGBA
	LabelTextColor color.RGBA
}

// DefaultAnnotationConfig returns sensible defaults for annotations.
func DefaultAnnotationConfig() AnnotationConfig {
	return AnnotationConfig{
		BorderWidth:          2,
		FontSize:             12,
		ShowLabels:           true,
		InteractiveOnly:      true,
		HideContained:        true,
		ContainmentThreshold: 0.99,
		LinkColor:            color.RGBA{R: 76, G: 175, B: 80, A: 255},   // Green
		ButtonColor:          color.RGBA{R: 33, G: 150, B: 243, A: 255},  // Blue
		InputColor:           color.RGBA{R: 255, G: 152, B: 0, A: 255},   // Orange
		DefaultColor:         color.RGBA{R: 156, G: 39, B: 176, A: 255},  // Purple
		LabelBgColor:         color.RGBA{R: 0, G: 0, B: 0, A: 200},       // Semi-transparent black
		LabelTextColor:       color.RGBA{R: 255, G: 255, B: 255, A: 255}, // White
	}
}

// Annotate draws bounding boxes and identifier labels for the visible
// element descriptors of a snapshot. The output keeps the input format.
func Annotate(imgData []byte, snap *dom.Snapshot, cfg AnnotationConfig) ([]byte, error) {
	if snap == nil || snap.Len() == 0 {
		return imgData, nil
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for annotation: %w", err)
	}

	targets := selectTargets(snap, cfg)
	if len(targets) == 0 {
		return imgData, nil
	}

	dc := gg.NewContextForImage(img)
	if cfg.FontPath != "" {
		if err := dc.LoadFontFace(cfg.FontPath, cfg.FontSize); err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", cfg.FontPath, err)
		}
	}

	for _, d := range targets {
		drawBoundingBox(dc, *d.Bounds, elementColor(d, cfg), cfg.BorderWidth)
	}

	if cfg.ShowLabels {
		for _, d := range targets {
			if cfg.ShowLabelsOnlyForUnlabeled && hasText(snap, d) {
				continue
			}
			drawIndexLabel(dc, d.Index, *d.Bounds, cfg)
		}
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dc.Image())
	default:
		err = jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}

	return buf.Bytes(), nil
}

// selectTargets returns the element descriptors to annotate in walk order.
func selectTargets(snap *dom.Snapshot, cfg AnnotationConfig) []*dom.Descriptor {
	var out []*dom.Descriptor
	snap.Walk(func(d *dom.Descriptor, _ int) bool {
		if !d.IsElement() || !d.IsVisible || d.Bounds == nil || !d.Bounds.HasArea() {
			return true
		}
		if cfg.InteractiveOnly && !d.IsInteractive {
			return true
		}
		out = append(out, d)
		return true
	})

	if !cfg.HideContained {
		return out
	}

	var kept []*dom.Descriptor
	for _, d := range out {
		if !isContained(d, out, cfg.ContainmentThreshold) {
			kept = append(kept, d)
		}
	}
	return kept
}

// isContained reports whether d lies inside a larger interactive target.
func isContained(d *dom.Descriptor, all []*dom.Descriptor, threshold float64) bool {
	area := d.Bounds.Width * d.Bounds.Height
	for _, other := range all {
		if other == d || !other.IsInteractive {
			continue
		}
		if other.Bounds.Width*other.Bounds.Height <= area {
			continue
		}
		if containedWithin(*d.Bounds, *other.Bounds, threshold) {
			return true
		}
	}
	return false
}

// containedWithin checks if inner is at least threshold contained within outer.
func containedWithin(inner, outer dom.Rect, threshold float64) bool {
	x1 := max(inner.X, outer.X)
	y1 := max(inner.Y, outer.Y)
	x2 := min(inner.X+inner.Width, outer.X+outer.Width)
	y2 := min(inner.Y+inner.Height, outer.Y+outer.Height)

	if x2 <= x1 || y2 <= y1 {
		return false // No overlap
	}

	innerArea := inner.Width * inner.Height
	if innerArea <= 0 {
		return false
	}
	return (x2-x1)*(y2-y1)/innerArea >= threshold
}

// hasText reports whether an element has a direct text child.
func hasText(snap *dom.Snapshot, d *dom.Descriptor) bool {
	for _, id := range d.Children {
		if child, ok := snap.Node(id); ok && child.Type == dom.TextNode {
			return true
		}
	}
	return false
}

// elementColor returns the box color for an element by tag, then role.
func elementColor(d *dom.Descriptor, cfg AnnotationConfig) color.RGBA {
	switch d.TagName {
	case "a":
		return cfg.LinkColor
	case "button":
		return cfg.ButtonColor
	case "input", "textarea", "select":
		return cfg.InputColor
	}

	switch strings.ToLower(d.Attributes["role"]) {
	case "button", "menuitem", "tab":
		return cfg.ButtonColor
	case "link":
		return cfg.LinkColor
	case "textbox", "combobox", "searchbox":
		return cfg.InputColor
	}
	return cfg.DefaultColor
}

func drawBoundingBox(dc *gg.Context, r dom.Rect, c color.RGBA, borderWidth int) {
	dc.SetColor(c)
	dc.SetLineWidth(float64(borderWidth))
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.Stroke()
}

// drawIndexLabel draws the identifier at the top center of the box, or just
// inside the box when there is no room above it.
func drawIndexLabel(dc *gg.Context, index int, r dom.Rect, cfg AnnotationConfig) {
	label := strconv.Itoa(index)
	const padding = 2.0

	textW, textH := dc.MeasureString(label)
	labelW := textW + padding*2
	labelH := textH + padding*2

	x := r.X + r.Width/2 - labelW/2
	y := r.Y - labelH - 2
	if y < 0 {
		y = r.Y + 2
	}

	maxX := float64(dc.Width()) - labelW
	if x > maxX {
		x = maxX
	}
	if x < 0 {
		x = 0
	}

	dc.SetColor(cfg.LabelBgColor)
	dc.DrawRectangle(x, y, labelW, labelH)
	dc.Fill()

	dc.SetColor(cfg.LabelTextColor)
	dc.DrawStringAnchored(label, x+padding, y+padding, 0, 1)
}

// AnnotateForLLM annotates a screenshot for vision models: every interactive
// element is boxed and labeled.
func AnnotateForLLM(imgData []byte, snap *dom.Snapshot) ([]byte, error) {
	cfg := DefaultAnnotationConfig()
	cfg.ShowLabelsOnlyForUnlabeled = false
	return Annotate(imgData, snap, cfg)
}

// AnnotateBrowserUseStyle only labels elements that carry no text.
func AnnotateBrowserUseStyle(imgData []byte, snap *dom.Snapshot) ([]byte, error) {
	cfg := DefaultAnnotationConfig()
	cfg.ShowLabelsOnlyForUnlabeled = true
	return Annotate(imgData, snap, cfg)
}
