package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grammar struct {
	Path  string `arg:"" optional:""`
	Count int    `default:"3"`
}

func TestParse(t *testing.T) {
	var g grammar
	var stdout, stderr bytes.Buffer
	ctx, code, done := Parse(&g, "tool", "A tool.", []string{"--count", "5", "in.pptx"}, &stdout, &stderr)
	require.False(t, done)
	assert.NotNil(t, ctx)
	assert.Zero(t, code)
	assert.Equal(t, "in.pptx", g.Path)
	assert.Equal(t, 5, g.Count)
	assert.Empty(t, stderr.String())
}

func TestParseHelpExitsZero(t *testing.T) {
	var g grammar
	var stdout, stderr bytes.Buffer
	ctx, code, done := Parse(&g, "tool", "A tool.", []string{"--help"}, &stdout, &stderr)
	assert.True(t, done)
	assert.Nil(t, ctx)
	assert.Zero(t, code)
	assert.Contains(t, stdout.String(), "A tool.")
}

func TestParseError(t *testing.T) {
	var g grammar
	var stdout, stderr bytes.Buffer
	_, code, done := Parse(&g, "tool", "A tool.", []string{"--count", "many"}, &stdout, &stderr)
	assert.True(t, done)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "tool: error:")
}
