package dom

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotJSON(t *testing.T) {
	doc, _ := page(
		newElement("A", newText("Docs")).attr("href", "/docs"),
		newElement("BR").withRect(Rect{}),
	)
	snap, err := Capture(doc)
	require.NoError(t, err)

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var generic struct {
		Root int                                   `json:"root"`
		Map  map[string]map[string]json.RawMessage `json:"map"`
	}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, *snap.Root, generic.Root)
	require.Len(t, generic.Map, snap.Len())

	text := generic.Map["0"]
	assert.JSONEq(t, `"TEXT_NODE"`, string(text["type"]))
	assert.JSONEq(t, `"Docs"`, string(text["text"]))
	assert.NotContains(t, text, "children")
	assert.NotContains(t, text, "pseudoElements")

	br := generic.Map["2"]
	assert.JSONEq(t, `"ELEMENT_NODE"`, string(br["type"]))
	assert.JSONEq(t, `[]`, string(br["children"]))
	assert.JSONEq(t, `{}`, string(br["attributes"]))
	assert.JSONEq(t, `false`, string(br["isVisible"]))
	assert.NotContains(t, br, "bounds")

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snap.IDs(), decoded.IDs())
	assert.Equal(t, *snap.Root, *decoded.Root)
	for id, d := range snap.Map {
		assert.Equal(t, d.Type, decoded.Map[id].Type)
		assert.Equal(t, d.XPath, decoded.Map[id].XPath)
		assert.Equal(t, d.Selector, decoded.Map[id].Selector)
		assert.Equal(t, d.Text, decoded.Map[id].Text)
		assert.Equal(t, d.Bounds, decoded.Map[id].Bounds)
	}
}

func TestSnapshotJSON_NullRoot(t *testing.T) {
	data, err := json.Marshal(&Snapshot{Map: map[int]*Descriptor{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"root":null,"map":{}}`, string(data))
}

func TestDescriptorJSON_UnknownType(t *testing.T) {
	var d Descriptor
	err := json.Unmarshal([]byte(`{"type":"COMMENT_NODE","index":1}`), &d)
	assert.Error(t, err)
}
