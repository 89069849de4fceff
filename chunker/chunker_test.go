package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_InvalidParams(t *testing.T) {
	_, err := Split("some text", 0, 0)
	require.Error(t, err)

	_, err = Split("some text", -5, 0)
	require.Error(t, err)

	_, err = Split("some text", 10, 10)
	require.Error(t, err)

	_, err = Split("some text", 10, -1)
	require.Error(t, err)
}

func TestSplit_EmptyInput(t *testing.T) {
	chunks, err := Split("", 100, 20)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split("   \n\t  ", 100, 20)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_ShortInputSingleChunk(t *testing.T) {
	text := "Water boils at one hundred degrees."
	chunks, err := Split(text, 800, 150)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplit_MaxSizeBound(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 40)
	for _, tc := range []struct{ size, overlap int }{
		{20, 5},
		{50, 10},
		{100, 0},
		{800, 150},
	} {
		chunks, err := Split(text, tc.size, tc.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), tc.size,
				"chunk exceeds max size %d: %q", tc.size, c)
		}
	}
}

func TestSplit_NoContentLost(t *testing.T) {
	text := "The sky is blue. Water boils at 100C. Rain falls from clouds. " +
		"Rivers flow toward the sea. Mountains rise above the plains."

	chunks, err := Split(text, 40, 10)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	merged := mergeOverlapping(chunks)
	assert.Equal(t, strings.Fields(text), strings.Fields(merged),
		"reconstruction after overlap removal must preserve every word in order")
}

func TestSplit_FactsScenario(t *testing.T) {
	chunks, err := Split("The sky is blue. Water boils at 100C.", 20, 5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(chunks), 2)

	merged := mergeOverlapping(chunks)
	assert.Contains(t, merged, "blue")
	assert.Contains(t, merged, "100C")
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon zeta ", 10)
	chunks, err := Split(text, 60, 20)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, sharedBoundary(chunks[i-1], chunks[i]), 0,
			"chunks %d and %d share no boundary text", i-1, i)
	}
}

// mergeOverlapping glues chunks back together by dropping, for each chunk,
// the longest prefix that is also a suffix of the text accumulated so far.
func mergeOverlapping(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	out := chunks[0]
	for _, c := range chunks[1:] {
		k := sharedBoundary(out, c)
		out += " " + strings.TrimSpace(c[k:])
	}
	return out
}

func sharedBoundary(prev, next string) int {
	max := len(next)
	if len(prev) < max {
		max = len(prev)
	}
	for i := max; i > 0; i-- {
		if strings.HasSuffix(prev, next[:i]) {
			return i
		}
	}
	return 0
}
