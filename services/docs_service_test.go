package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsService_Guide(t *testing.T) {
	docs := NewDocsService()

	html, err := docs.Guide()
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, `<h1 id="documentation">Documentation</h1>`)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<code>throttled</code>")
	assert.True(t, strings.Contains(page, "<strong>ASL-1.0</strong>"))

	again, err := docs.Guide()
	require.NoError(t, err)
	assert.Equal(t, html, again)
}
