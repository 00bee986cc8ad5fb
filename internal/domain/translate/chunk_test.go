package translate

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/translation-queue/internal/errors"
)

func TestNormalizeChunkLimit(t *testing.T) {
	assert.Equal(t, DefaultChunkLimit, NormalizeChunkLimit(0))
	assert.Equal(t, DefaultChunkLimit, NormalizeChunkLimit(-1))
	assert.Equal(t, MinChunkLimit, NormalizeChunkLimit(100))
	assert.Equal(t, 1200, NormalizeChunkLimit(1200))
}

func TestChunk_RespectsLimit(t *testing.T) {
	segs := []string{
		strings.Repeat("a", 200),
		strings.Repeat("b", 200),
		strings.Repeat("c", 200),
		strings.Repeat("d", 50),
	}
	chunks := Chunk(segs, 500)

	require.Len(t, chunks, 2)
	assert.Equal(t, segs[:2], chunks[0])
	assert.Equal(t, segs[2:], chunks[1])
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(JoinChunk(c)), 500)
	}
}

func TestChunk_OversizedSegmentAlone(t *testing.T) {
	big := strings.Repeat("x", 900)
	chunks := Chunk([]string{"short", big, "tail"}, 500)

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"short"}, chunks[0])
	assert.Equal(t, []string{big}, chunks[1])
	assert.Equal(t, []string{"tail"}, chunks[2])
}

func TestChunk_CountsRunes(t *testing.T) {
	// 240 runes each but 480 bytes each.
	seg := strings.Repeat("è", 240)
	chunks := Chunk([]string{seg, seg}, 510)
	assert.Len(t, chunks, 1)
}

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk(nil, 500))
}

func TestChunkRoundTrip(t *testing.T) {
	segs := []string{"uno", "due", "tre", strings.Repeat("q", 600), "cinque"}
	var rebuilt []string
	for _, c := range Chunk(segs, 500) {
		rebuilt = append(rebuilt, SplitChunk(JoinChunk(c), len(c))...)
	}
	assert.Equal(t, segs, rebuilt)
}

func TestSplitChunk(t *testing.T) {
	t.Run("pads missing pieces", func(t *testing.T) {
		assert.Equal(t, []string{"one", "", ""}, SplitChunk("one", 3))
	})
	t.Run("drops surplus pieces", func(t *testing.T) {
		resp := "a" + SegmentSeparator + "b" + SegmentSeparator + "c"
		assert.Equal(t, []string{"a", "b"}, SplitChunk(resp, 2))
	})
	t.Run("tolerates reformatted separators", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, SplitChunk("a [[XLQ_SEGMENT_BREAK]]b", 2))
	})
	t.Run("zero want", func(t *testing.T) {
		assert.Nil(t, SplitChunk("a", 0))
	})
}

func TestCheckPayload(t *testing.T) {
	require.NoError(t, CheckPayload([]string{"abc", "de"}, 5))

	err := CheckPayload([]string{"abc", "def"}, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))
	assert.True(t, apperrors.IsResourceLimit(err))

	require.NoError(t, CheckPayload([]string{strings.Repeat("z", 1024)}, 0), "non-positive ceiling uses the default")
}

func TestCharCount(t *testing.T) {
	assert.Equal(t, 5, CharCount([]string{"ciào", "!"}))
}
