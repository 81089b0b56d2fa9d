package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anxuanzi/domsnap-go/dom"
)

const page = `<body><p>Hello</p><button onclick="x()">Go</button></body>`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("LOG_LEVEL", "error")

	htmlFormat, htmlOut = formatJSON, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestHTML_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

	out, err := run(t, "", "html", path)
	require.NoError(t, err)

	var snap dom.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.NotNil(t, snap.Root)
	assert.Equal(t, 5, snap.Len())
}

func TestHTML_StdinText(t *testing.T) {
	out, err := run(t, page, "html", "-", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "p 'Hello'")
	assert.Contains(t, out, "button 'Go'")
}

func TestHTML_OutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")

	out, err := run(t, page, "html", "-", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap dom.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 5, snap.Len())
}

func TestHTML_Errors(t *testing.T) {
	_, err := run(t, page, "html", "-", "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "", "html", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat(formatJSON))
	assert.NoError(t, checkFormat(formatText))
	assert.Error(t, checkFormat(""))
}
