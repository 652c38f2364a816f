package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerate tests prefixed ID generation.
func TestGenerate(t *testing.T) {
	id, err := Generate("tag")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "tag-"))
	// Prefix, separator, and 21-char NanoID.
	assert.Len(t, id, len("tag-")+21)
}

// TestGenerate_Unique tests that generated IDs do not collide.
func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("vote")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate ID generated: %s", id)
		seen[id] = true
	}
}

// TestMustGenerate tests the panic-on-failure variant.
func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate("question")
		assert.True(t, strings.HasPrefix(id, "question-"))
	})
}
