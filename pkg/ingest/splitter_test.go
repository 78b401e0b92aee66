package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewRecursiveSplitter(100, 20)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter(100, 20)

	chunks := s.Split("a short paragraph that fits")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short paragraph that fits", chunks[0])
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewRecursiveSplitter(50, 10)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("word ")
	}
	chunks := s.Split(b.String())

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 50, "chunk %d too long: %q", i, c)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewRecursiveSplitter(40, 0)

	first := strings.Repeat("a", 30)
	second := strings.Repeat("b", 30)
	chunks := s.Split(first + "\n\n" + second)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestSplitOverlapCarriesTrailingText(t *testing.T) {
	s := NewRecursiveSplitter(20, 8)

	chunks := s.Split("one two three four five six seven eight nine ten")
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with material from its predecessor.
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i])[0]
		assert.Contains(t, chunks[i-1], firstWord,
			"chunk %d should overlap with chunk %d", i, i-1)
	}
}

func TestSplitLongUnbrokenText(t *testing.T) {
	s := NewRecursiveSplitter(30, 5)

	chunks := s.Split(strings.Repeat("x", 100))
	require.Greater(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 30)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "xxx"))
}
