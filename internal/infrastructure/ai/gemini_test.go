package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateAtWord(t *testing.T) {
	// Under the limit passes through untouched
	assert.Equal(t, "Blue Shirt", truncateAtWord("Blue Shirt", 60))

	// Cut lands on a word boundary, not mid-word
	assert.Equal(t, "Soft cotton", truncateAtWord("Soft cotton tee for summer", 15))

	// Trailing punctuation left at the cut is stripped
	assert.Equal(t, "Soft cotton tee", truncateAtWord("Soft cotton tee. Perfect for summer.", 17))

	// A single long word falls back to a hard cut
	assert.Equal(t, "abcde", truncateAtWord("abcdefghij", 5))
}
