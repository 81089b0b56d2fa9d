package dom

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// NodeType tags the descriptor variant.
type NodeType string

const (
	ElementNode NodeType = "ELEMENT_NODE"
	TextNode    NodeType = "TEXT_NODE"
)

// PseudoContent is the generated content captured for one pseudo-element.
type PseudoContent struct {
	Content string `json:"content"`
	Style   Style  `json:"style,omitempty"`
}

// PseudoElements holds the ::before and ::after captures of an element.
type PseudoElements struct {
	Before *PseudoContent `json:"before,omitempty"`
	After  *PseudoContent `json:"after,omitempty"`
}

// Descriptor is the record emitted for one retained node.
type Descriptor struct {
	Type       NodeType
	Index      int
	TagName    string
	Attributes map[string]string
	XPath      string
	Selector   string
	IsVisible  bool

	// Element only.
	Children       []int
	PseudoElements *PseudoElements
	ShadowRoot     bool
	IsInteractive  bool
	Bounds         *Rect

	// Text only.
	Text string
}

// IsElement reports whether the descriptor is an ELEMENT_NODE.
func (d *Descriptor) IsElement() bool {
	return d.Type == ElementNode
}

type elementJSON struct {
	Type           NodeType          `json:"type"`
	Index          int               `json:"index"`
	TagName        string            `json:"tagName"`
	Attributes     map[string]string `json:"attributes"`
	XPath          string            `json:"xpath"`
	Selector       string            `json:"selector,omitempty"`
	Children       []int             `json:"children"`
	IsVisible      bool              `json:"isVisible"`
	IsInteractive  bool              `json:"isInteractive,omitempty"`
	PseudoElements *PseudoElements   `json:"pseudoElements,omitempty"`
	ShadowRoot     bool              `json:"shadowRoot,omitempty"`
	Bounds         *Rect             `json:"bounds,omitempty"`
}

type textJSON struct {
	Type       NodeType          `json:"type"`
	Index      int               `json:"index"`
	TagName    string            `json:"tagName"`
	Text       string            `json:"text"`
	XPath      string            `json:"xpath"`
	Selector   string            `json:"selector,omitempty"`
	IsVisible  bool              `json:"isVisible"`
	Attributes map[string]string `json:"attributes"`
}

// MarshalJSON encodes the variant selected by Type.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	attrs := d.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}

	if d.Type == TextNode {
		return json.Marshal(textJSON{
			Type:       d.Type,
			Index:      d.Index,
			TagName:    d.TagName,
			Text:       d.Text,
			XPath:      d.XPath,
			Selector:   d.Selector,
			IsVisible:  d.IsVisible,
			Attributes: attrs,
		})
	}

	children := d.Children
	if children == nil {
		children = []int{}
	}
	return json.Marshal(elementJSON{
		Type:           d.Type,
		Index:          d.Index,
		TagName:        d.TagName,
		Attributes:     attrs,
		XPath:          d.XPath,
		Selector:       d.Selector,
		Children:       children,
		IsVisible:      d.IsVisible,
		IsInteractive:  d.IsInteractive,
		PseudoElements: d.PseudoElements,
		ShadowRoot:     d.ShadowRoot,
		Bounds:         d.Bounds,
	})
}

// UnmarshalJSON decodes either variant.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		elementJSON
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Type {
	case ElementNode, TextNode:
	default:
		return fmt.Errorf("dom: unknown descriptor type %q", raw.Type)
	}

	*d = Descriptor{
		Type:           raw.Type,
		Index:          raw.Index,
		TagName:        raw.TagName,
		Attributes:     raw.Attributes,
		XPath:          raw.XPath,
		Selector:       raw.Selector,
		IsVisible:      raw.IsVisible,
		Children:       raw.Children,
		PseudoElements: raw.PseudoElements,
		ShadowRoot:     raw.ShadowRoot,
		IsInteractive:  raw.IsInteractive,
		Bounds:         raw.Bounds,
		Text:           raw.Text,
	}
	return nil
}

// Snapshot is the result of one capture.
type Snapshot struct {
	// Root is the identifier of the outermost emitted node, nil when the
	// captured subtree produced nothing.
	Root *int

	// Map holds every emitted descriptor keyed by identifier.
	Map map[int]*Descriptor
}

// Len returns the number of descriptors.
func (s *Snapshot) Len() int {
	return len(s.Map)
}

// Node returns the descriptor for an identifier.
func (s *Snapshot) Node(id int) (*Descriptor, bool) {
	d, ok := s.Map[id]
	return d, ok
}

// IDs returns all identifiers in ascending order.
func (s *Snapshot) IDs() []int {
	ids := make([]int, 0, len(s.Map))
	for id := range s.Map {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Walk visits descriptors depth-first from the root in child order. The
// callback receives the nesting depth; returning false skips the children.
func (s *Snapshot) Walk(fn func(d *Descriptor, depth int) bool) {
	if s.Root == nil {
		return
	}
	s.walk(*s.Root, 0, fn)
}

func (s *Snapshot) walk(id, depth int, fn func(d *Descriptor, depth int) bool) {
	d, ok := s.Map[id]
	if !ok {
		return
	}
	if !fn(d, depth) {
		return
	}
	for _, child := range d.Children {
		s.walk(child, depth+1, fn)
	}
}

type snapshotJSON struct {
	Root *int                   `json:"root"`
	Map  map[string]*Descriptor `json:"map"`
}

// MarshalJSON encodes the snapshot as {"root": id, "map": {...}}.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		Root: s.Root,
		Map:  make(map[string]*Descriptor, len(s.Map)),
	}
	for id, d := range s.Map {
		out.Map[strconv.Itoa(id)] = d
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	s.Root = in.Root
	s.Map = make(map[int]*Descriptor, len(in.Map))
	for key, d := range in.Map {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("dom: invalid identifier %q: %w", key, err)
		}
		s.Map[id] = d
	}
	return nil
}
